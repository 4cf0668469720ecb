// Package headless provides an in-memory media sink and surface with no
// video output. It keeps the control API, state machine and swarm transport
// fully functional on hosts without mpv, which is how integration
// environments and CI run the server.
package headless

import (
	"log/slog"
	"sync"

	"playcore/internal/domain"
)

type Sink struct {
	log *slog.Logger

	mu          sync.Mutex
	source      string
	playing     bool
	muted       bool
	volume      float64
	currentTime float64
	visible     bool
	fullscreen  bool
	pip         bool
	tracks      []domain.TextTrack
}

func New(log *slog.Logger) *Sink {
	return &Sink{log: log, volume: 1}
}

func (s *Sink) SetSource(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = url
	s.tracks = nil
	s.currentTime = 0
	s.log.Debug("headless sink source set", slog.String("url", url))
	return nil
}

func (s *Sink) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func (s *Sink) ClearSource() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = ""
	s.playing = false
	s.tracks = nil
}

func (s *Sink) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
	return nil
}

func (s *Sink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

func (s *Sink) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Sink) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime
}

func (s *Sink) SetCurrentTime(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	s.currentTime = seconds
}

// Duration is unknown without a decoder.
func (s *Sink) Duration() float64 { return 0 }

func (s *Sink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *Sink) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.volume = v
}

func (s *Sink) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *Sink) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
}

// CanPlayNative always reports false so adaptive formats go through their
// transport engine and the manifest still gets parsed.
func (s *Sink) CanPlayNative(mimeType string) bool { return false }

func (s *Sink) AddTextTrack(url, label, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = append(s.tracks, domain.TextTrack{URL: url, Label: label, Language: language})
}

func (s *Sink) TextTracks() []domain.TextTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TextTrack, len(s.tracks))
	copy(out, s.tracks)
	return out
}

func (s *Sink) SetActiveTextTrack(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.tracks) {
		return domain.ErrNoSubtitleTrack
	}
	for i := range s.tracks {
		s.tracks[i].Active = i == index
	}
	return nil
}

func (s *Sink) DisableTextTracks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tracks {
		s.tracks[i].Active = false
	}
}

func (s *Sink) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = true
}

func (s *Sink) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = false
	s.fullscreen = false
	s.pip = false
}

func (s *Sink) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *Sink) RequestFullscreen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullscreen = true
	return nil
}

func (s *Sink) ExitFullscreen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullscreen = false
	return nil
}

func (s *Sink) Fullscreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullscreen
}

func (s *Sink) EnterPiP() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pip = true
	return nil
}

func (s *Sink) ExitPiP() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pip = false
	return nil
}

func (s *Sink) InPiP() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pip
}
