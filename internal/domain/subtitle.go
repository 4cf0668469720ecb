package domain

// SubtitleCue is one timed subtitle entry. Start and End are in seconds.
// Parsers emit cues in input order; consumers assume ascending Start order
// and must sort if their input does not guarantee it.
type SubtitleCue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SubtitleFormat is the detected text subtitle format.
type SubtitleFormat string

const (
	SubtitleSRT     SubtitleFormat = "srt"
	SubtitleVTT     SubtitleFormat = "vtt"
	SubtitleUnknown SubtitleFormat = "unknown"
)

// TextTrack is an attached subtitle track. At most one track is active at a
// time, mirroring standard text-track semantics.
type TextTrack struct {
	URL      string `json:"url"`
	Label    string `json:"label"`
	Language string `json:"language"`
	Active   bool   `json:"active"`
}
