package swarm

import (
	"path"
	"strings"

	"playcore/internal/domain"
)

// playableExtensions are the video container formats the sink is expected to
// handle. Files outside this set are never selected, whatever their size.
var playableExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".avi":  {},
	".webm": {},
	".mov":  {},
	".m4v":  {},
	".flv":  {},
}

func isVideoFile(name string) bool {
	_, ok := playableExtensions[strings.ToLower(path.Ext(name))]
	return ok
}

// selectPlayableFile picks the largest video file from a torrent's file list.
// Comparison is strict greater-than, so the first file of the maximum size
// wins ties. Returns ErrNoPlayableFile when no file matches a known video
// extension.
func selectPlayableFile(files []domain.FileRef) (domain.FileRef, error) {
	var best domain.FileRef
	found := false
	for _, f := range files {
		if !isVideoFile(f.Path) {
			continue
		}
		if !found || f.Length > best.Length {
			best = f
			found = true
		}
	}
	if !found {
		return domain.FileRef{}, domain.ErrNoPlayableFile
	}
	return best, nil
}
