package player

import (
	"fmt"
	"log/slog"

	"playcore/internal/domain"
)

// TogglePlay flips between Playing and Paused on the sink and mirrors the
// change in the state machine.
func (p *Player) TogglePlay() error {
	if p.sink.Playing() {
		p.sink.Pause()
		p.transition(domain.PlayerPaused)
		return nil
	}
	if err := p.sink.Play(); err != nil {
		return fmt.Errorf("resume playback: %w", err)
	}
	p.transition(domain.PlayerPlaying)
	return nil
}

// SeekBy moves the playhead by offset seconds, clamped to [0, duration].
func (p *Player) SeekBy(offset float64) {
	target := p.sink.CurrentTime() + offset
	if target < 0 {
		target = 0
	}
	if d := p.sink.Duration(); d > 0 && target > d {
		target = d
	}
	p.sink.SetCurrentTime(target)
}

func (p *Player) ToggleMute() {
	p.sink.SetMuted(!p.sink.Muted())
}

// ChangeVolume adjusts volume by delta, clamped to [0,1].
func (p *Player) ChangeVolume(delta float64) {
	v := p.sink.Volume() + delta
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.sink.SetVolume(v)
}

func (p *Player) ToggleFullscreen() error {
	if p.surface.Fullscreen() {
		return p.surface.ExitFullscreen()
	}
	return p.surface.RequestFullscreen()
}

// EnterPiP requests picture-in-picture. Already being in PiP is not an
// error; an unsupported surface reports failure without panicking.
func (p *Player) EnterPiP() error {
	if p.surface.InPiP() {
		return nil
	}
	if err := p.surface.EnterPiP(); err != nil {
		p.log.Warn("picture-in-picture unavailable", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", domain.ErrPictureInPicture, err)
	}
	return nil
}

func (p *Player) ExitPiP() error {
	if !p.surface.InPiP() {
		return nil
	}
	if err := p.surface.ExitPiP(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPictureInPicture, err)
	}
	return nil
}

func (p *Player) TogglePiP() error {
	if p.surface.InPiP() {
		return p.ExitPiP()
	}
	return p.EnterPiP()
}

// AddSubtitle attaches a subtitle track from a URL. The new track is not
// activated automatically.
func (p *Player) AddSubtitle(url, label, language string) {
	p.sink.AddTextTrack(url, label, language)
	p.log.Info("subtitle track added",
		slog.String("label", label),
		slog.String("language", language))
}

func (p *Player) Subtitles() []domain.TextTrack {
	return p.sink.TextTracks()
}

// SelectSubtitle enables exactly one track by index, disabling the rest.
func (p *Player) SelectSubtitle(index int) error {
	return p.sink.SetActiveTextTrack(index)
}

func (p *Player) DisableSubtitles() {
	p.sink.DisableTextTracks()
}

// transition applies a control-initiated state change, dropping it when the
// machine does not allow it (e.g. toggling play while still Loading).
func (p *Player) transition(to domain.PlayerState) {
	p.mu.Lock()
	p.setStateLocked(to)
	p.mu.Unlock()
}
