package ports

import "playcore/internal/domain"

// MediaSink is the rendering sink the caller owns. The playback core borrows
// it for the duration of a player's lifecycle and never destroys it; exactly
// one transport engine may feed it at a time.
type MediaSink interface {
	// SetSource points the sink at a playable URL. Replaces any prior source.
	SetSource(url string) error
	Source() string
	ClearSource()

	Play() error
	Pause()
	Playing() bool

	// CurrentTime and Duration are in seconds. Duration returns 0 while
	// unknown.
	CurrentTime() float64
	SetCurrentTime(seconds float64)
	Duration() float64

	// Volume is in [0,1].
	Volume() float64
	SetVolume(v float64)
	Muted() bool
	SetMuted(muted bool)

	// CanPlayNative reports whether this runtime's sink plays the given MIME
	// type without an auxiliary engine.
	CanPlayNative(mimeType string) bool

	// Text tracks follow single-active semantics: activating one track
	// deactivates the rest.
	AddTextTrack(url, label, language string)
	TextTracks() []domain.TextTrack
	SetActiveTextTrack(index int) error
	DisableTextTracks()
}

// Surface is the container element around the sink: visibility, fullscreen
// and picture-in-picture requests. Borrowed, never created or destroyed by
// the core.
type Surface interface {
	Show()
	Hide()
	Visible() bool

	RequestFullscreen() error
	ExitFullscreen() error
	Fullscreen() bool

	// EnterPiP and ExitPiP report failure through their error return when the
	// runtime has no picture-in-picture support; they never panic.
	EnterPiP() error
	ExitPiP() error
	InPiP() bool
}
