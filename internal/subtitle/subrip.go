package subtitle

import (
	"strings"

	"playcore/internal/domain"
)

// ParseSubRip parses SubRip (.srt) text into cues. Blocks are separated by
// blank lines; a block is expected to carry an index line, a timestamp line
// and at least one text line. Blocks that do not fit are skipped rather than
// failing the whole file, since srt files in the wild are frequently sloppy.
func ParseSubRip(text string) []domain.SubtitleCue {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	blocks := splitBlocks(normalized)

	cues := make([]domain.SubtitleCue, 0, len(blocks))
	for _, block := range blocks {
		lines := strings.Split(block, "\n")
		if len(lines) < 3 {
			continue
		}
		timing := lines[1]
		if !strings.Contains(timing, "-->") {
			continue
		}
		parts := strings.SplitN(timing, "-->", 2)
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			continue
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			continue
		}
		cues = append(cues, domain.SubtitleCue{
			Start: start,
			End:   end,
			Text:  strings.TrimSpace(strings.Join(lines[2:], "\n")),
		})
	}
	return cues
}

func splitBlocks(text string) []string {
	raw := strings.Split(text, "\n\n")
	blocks := make([]string, 0, len(raw))
	for _, b := range raw {
		b = strings.TrimSpace(b)
		if b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}
