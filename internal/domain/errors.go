package domain

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported stream format")
	ErrNoPlayableFile    = errors.New("no playable file in torrent")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrPlayerClosed      = errors.New("player is closed")
	ErrSessionActive     = errors.New("swarm session already active")
	ErrNoActiveTorrent   = errors.New("no active torrent")
	ErrModuleLoadFailed  = errors.New("backend module load failed")
	ErrPictureInPicture  = errors.New("picture-in-picture unavailable")
	ErrNoSubtitleTrack   = errors.New("subtitle track not found")
	ErrEngineDestroyed   = errors.New("engine destroyed")
)
