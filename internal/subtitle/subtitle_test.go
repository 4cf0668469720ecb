package subtitle

import (
	"strings"
	"testing"

	"playcore/internal/domain"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"00:00:10,500", 10.5},
		{"00:00:10.500", 10.5},
		{"01:02:03.004", 3723.004},
		{"02:03.004", 123.004},
		{"10.5", 10.5},
		{"0:00:00.000", 0},
		{"1:00:00.000", 3600},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1:2:3:4", "00:xx:10.000"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Errorf("ParseTimestamp(%q): expected error", in)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00.000"},
		{10.5, "00:00:10.500"},
		{3723.004, "01:02:03.004"},
		{-1, "00:00:00.000"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.in); got != tc.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

const sampleSRT = `1
00:00:01,000 --> 00:00:04,000
Hello there.

2
00:00:05,500 --> 00:00:07,250
Second line,
continued.

garbage block

3
00:00:09,000 missing arrow
skipped
`

func TestParseSubRip(t *testing.T) {
	cues := ParseSubRip(sampleSRT)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Start != 1.0 || cues[0].End != 4.0 || cues[0].Text != "Hello there." {
		t.Errorf("unexpected first cue: %+v", cues[0])
	}
	if cues[1].Start != 5.5 || cues[1].End != 7.25 {
		t.Errorf("unexpected second cue timing: %+v", cues[1])
	}
	if cues[1].Text != "Second line,\ncontinued." {
		t.Errorf("multiline text not preserved: %q", cues[1].Text)
	}
}

func TestParseSubRipCRLF(t *testing.T) {
	cues := ParseSubRip(strings.ReplaceAll(sampleSRT, "\n", "\r\n"))
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
}

const sampleVTT = `WEBVTT

NOTE this is a comment

intro
00:00:01.000 --> 00:00:04.000 line:90% align:start
Hello there.

00:00:05.500 --> 00:00:07.250
Second.
`

func TestParseWebVTT(t *testing.T) {
	cues := ParseWebVTT(sampleVTT)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Start != 1.0 || cues[0].End != 4.0 {
		t.Errorf("cue settings not stripped from end timestamp: %+v", cues[0])
	}
	if cues[0].Text != "Hello there." {
		t.Errorf("unexpected cue text: %q", cues[0].Text)
	}
	if cues[1].Start != 5.5 || cues[1].End != 7.25 {
		t.Errorf("unexpected second cue: %+v", cues[1])
	}
}

func TestParseWebVTTBracketSettings(t *testing.T) {
	cues := ParseWebVTT("WEBVTT\n\n00:00:01.000 --> 00:00:02.000[align:start]\ntext\n")
	if len(cues) != 1 || cues[0].End != 2.0 {
		t.Fatalf("bracketed settings not stripped: %+v", cues)
	}
}

func TestConvertSubRipToWebVTT(t *testing.T) {
	out := ConvertSubRipToWebVTT(sampleSRT)
	if !strings.HasPrefix(out, "WEBVTT\n\n") {
		t.Fatalf("missing WEBVTT header: %q", out)
	}
	if !strings.Contains(out, "1\n00:00:01.000 --> 00:00:04.000\nHello there.") {
		t.Errorf("first cue not rendered: %q", out)
	}

	// Round trip: the rendered document parses back to the same cues.
	back := ParseWebVTT(out)
	orig := ParseSubRip(sampleSRT)
	if len(back) != len(orig) {
		t.Fatalf("round trip cue count %d != %d", len(back), len(orig))
	}
	for i := range back {
		if back[i] != orig[i] {
			t.Errorf("round trip cue %d = %+v, want %+v", i, back[i], orig[i])
		}
	}
}

func TestShiftTimestamps(t *testing.T) {
	src := CuesToWebVTT([]domain.SubtitleCue{
		{Start: 3.0, End: 6.0, Text: "early"},
		{Start: 10.0, End: 12.0, Text: "late"},
	})

	cues := ParseWebVTT(ShiftTimestamps(src, -5))
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Start != 0 {
		t.Errorf("start not clamped at 0: %v", cues[0].Start)
	}
	if cues[0].End != 1.0 {
		t.Errorf("end shifted wrong: %v", cues[0].End)
	}
	if cues[1].Start != 5.0 || cues[1].End != 7.0 {
		t.Errorf("unexpected second cue: %+v", cues[1])
	}

	cues = ParseWebVTT(ShiftTimestamps(src, 2.5))
	if cues[0].Start != 5.5 || cues[0].End != 8.5 {
		t.Errorf("positive shift wrong: %+v", cues[0])
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want domain.SubtitleFormat
	}{
		{"vtt", sampleVTT, domain.SubtitleVTT},
		{"vtt bom-ish leading space", "\n  WEBVTT\n", domain.SubtitleVTT},
		{"vtt after header junk", "\ufeffNOTE generated\nWEBVTT\n\n00:01.000 --> 00:02.000\nhi\n", domain.SubtitleVTT},
		{"srt", sampleSRT, domain.SubtitleSRT},
		{"plain text", "just some words", domain.SubtitleUnknown},
		{"empty", "", domain.SubtitleUnknown},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.in); got != tc.want {
			t.Errorf("%s: DetectFormat = %q, want %q", tc.name, got, tc.want)
		}
	}
}
