// Package format classifies opaque stream references into transport families
// using lexical heuristics only. No I/O happens here.
package format

import (
	"path"
	"strings"

	"playcore/internal/domain"
	"playcore/internal/domain/ports"
)

// MIME types probed for native playback support, per format.
const (
	mimeHLS  = "application/vnd.apple.mpegurl"
	mimeDASH = "application/dash+xml"
)

// directMimeTypes maps direct-file extensions to a best-effort MIME type.
var directMimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// Detect classifies a stream reference. Pure, total and case-insensitive.
// The match order is load-bearing: a magnet URI may embed an .m3u8 substring
// in its display name, so the torrent checks run first.
func Detect(reference string) domain.StreamFormat {
	ref := strings.ToLower(reference)
	switch {
	case strings.HasPrefix(ref, "magnet:"), strings.HasSuffix(ref, ".torrent"):
		return domain.FormatTorrent
	case strings.Contains(ref, ".m3u8"), strings.Contains(ref, "m3u8"):
		return domain.FormatHLS
	case strings.Contains(ref, ".mpd"), strings.Contains(ref, "dash+xml"):
		return domain.FormatDASH
	default:
		return domain.FormatDirect
	}
}

// Info derives StreamInfo from a reference: the format, adaptivity, and for
// direct references a best-effort MIME type from the file extension.
func Info(reference string) domain.StreamInfo {
	f := Detect(reference)
	info := domain.StreamInfo{
		Format:     f,
		IsAdaptive: f == domain.FormatHLS || f == domain.FormatDASH,
	}
	if f == domain.FormatDirect {
		ext := strings.ToLower(path.Ext(stripQuery(reference)))
		info.MimeType = directMimeTypes[ext]
	}
	return info
}

// IsNativelySupported reports whether the current runtime's media sink plays
// the format without an auxiliary engine. The unified player uses this to
// skip loading the HLS engine entirely when possible.
func IsNativelySupported(sink ports.MediaSink, f domain.StreamFormat) bool {
	if sink == nil {
		return false
	}
	switch f {
	case domain.FormatHLS:
		return sink.CanPlayNative(mimeHLS)
	case domain.FormatDASH:
		return sink.CanPlayNative(mimeDASH)
	case domain.FormatDirect:
		return true
	default:
		return false
	}
}

func stripQuery(reference string) string {
	if i := strings.IndexAny(reference, "?#"); i >= 0 {
		return reference[:i]
	}
	return reference
}
