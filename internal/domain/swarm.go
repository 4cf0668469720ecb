package domain

import "time"

// FileRef identifies one file inside a torrent.
type FileRef struct {
	Index          int    `json:"index"`
	Path           string `json:"path"`
	Length         int64  `json:"length"`
	BytesCompleted int64  `json:"bytesCompleted"`
}

// SwarmStats is a point-in-time snapshot of a swarm session, recomputed on a
// fixed interval rather than pushed incrementally. Progress is in [0,1].
type SwarmStats struct {
	DownloadSpeed int64     `json:"downloadSpeed"`
	UploadSpeed   int64     `json:"uploadSpeed"`
	Progress      float64   `json:"progress"`
	NumPeers      int       `json:"numPeers"`
	Downloaded    int64     `json:"downloaded"`
	Uploaded      int64     `json:"uploaded"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
