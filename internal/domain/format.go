package domain

// StreamFormat is the transport family of a stream reference. It is derived
// once from the reference string and never re-derived for a given load.
type StreamFormat string

const (
	FormatHLS     StreamFormat = "hls"
	FormatDASH    StreamFormat = "dash"
	FormatDirect  StreamFormat = "direct"
	FormatTorrent StreamFormat = "torrent"
)

// KnownFormats lists every format the playback core can handle. Each one has
// at least a fallback engine.
var KnownFormats = []StreamFormat{FormatHLS, FormatDASH, FormatDirect, FormatTorrent}

// Known reports whether f is one of the enumerated stream formats.
func (f StreamFormat) Known() bool {
	switch f {
	case FormatHLS, FormatDASH, FormatDirect, FormatTorrent:
		return true
	}
	return false
}

type StreamInfo struct {
	Format     StreamFormat `json:"format"`
	MimeType   string       `json:"mimeType,omitempty"`
	IsAdaptive bool         `json:"isAdaptive"`
}

// QualityLevel is one variant of an adaptive stream, taken from the master
// manifest.
type QualityLevel struct {
	Index      int    `json:"index"`
	Bandwidth  uint32 `json:"bandwidth"`
	Resolution string `json:"resolution,omitempty"`
	URI        string `json:"uri"`
}
