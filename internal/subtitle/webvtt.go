package subtitle

import (
	"fmt"
	"regexp"
	"strings"

	"playcore/internal/domain"
)

var subripHead = regexp.MustCompile(`^\d+\s*\n\s*\d{1,2}:\d{2}:\d{2}[,.]\d{1,3}\s*-->`)

// DetectFormat sniffs the subtitle format from text content. A WEBVTT marker
// anywhere wins; otherwise the SubRip index-then-timestamp opening
// identifies srt.
func DetectFormat(text string) domain.SubtitleFormat {
	trimmed := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if strings.Contains(trimmed, "WEBVTT") {
		return domain.SubtitleVTT
	}
	if subripHead.MatchString(trimmed) {
		return domain.SubtitleSRT
	}
	return domain.SubtitleUnknown
}

// ParseWebVTT parses WebVTT (.vtt) text into cues. Everything up to the first
// timing line is ignored, which skips the WEBVTT header, NOTE blocks and cue
// identifiers alike. Trailing cue settings after the end timestamp are
// dropped.
func ParseWebVTT(text string) []domain.SubtitleCue {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var cues []domain.SubtitleCue
	for i := 0; i < len(lines); i++ {
		if !strings.Contains(lines[i], "-->") {
			continue
		}
		parts := strings.SplitN(lines[i], "-->", 2)
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			continue
		}
		end, err := ParseTimestamp(trimCueSettings(parts[1]))
		if err != nil {
			continue
		}

		var body []string
		for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			i++
			body = append(body, lines[i])
		}
		cues = append(cues, domain.SubtitleCue{
			Start: start,
			End:   end,
			Text:  strings.TrimSpace(strings.Join(body, "\n")),
		})
	}
	return cues
}

// trimCueSettings cuts the end timestamp off from whatever follows it, e.g.
// "00:00:05.000 line:90%" or "00:00:05.000[align:start]".
func trimCueSettings(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexAny(s, " \t["); idx >= 0 {
		s = s[:idx]
	}
	return s
}

// CuesToWebVTT renders cues as a WebVTT document, numbering cues in input
// order starting at 1.
func CuesToWebVTT(cues []domain.SubtitleCue) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, cue := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cue.Text)
	}
	return b.String()
}

// ConvertSubRipToWebVTT re-renders SubRip text as WebVTT.
func ConvertSubRipToWebVTT(text string) string {
	return CuesToWebVTT(ParseSubRip(text))
}

// ShiftTimestamps moves every cue in a WebVTT document by offset seconds and
// re-renders it. Start and end are clamped at zero independently, so a cue
// shifted past the origin collapses rather than going negative.
func ShiftTimestamps(text string, offset float64) string {
	cues := ParseWebVTT(text)
	for i := range cues {
		cues[i].Start = clampZero(cues[i].Start + offset)
		cues[i].End = clampZero(cues[i].End + offset)
	}
	return CuesToWebVTT(cues)
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
