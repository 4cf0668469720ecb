package backend

import (
	"errors"
	"log/slog"
	"sync"

	"playcore/internal/domain"
	"playcore/internal/domain/ports"
)

// Passthrough is the fallback engine for formats the sink plays natively:
// direct files, and manifests when the sink advertises native support. Load
// hands the URL straight to the sink and reports a parsed manifest with no
// alternate quality levels.
type Passthrough struct {
	log *slog.Logger

	mu        sync.Mutex
	sink      ports.MediaSink
	source    string
	destroyed bool

	events chan domain.EngineEvent
}

func NewPassthrough(log *slog.Logger) *Passthrough {
	return &Passthrough{
		log:    log,
		events: make(chan domain.EngineEvent, 8),
	}
}

func (p *Passthrough) Attach(sink ports.MediaSink) {
	p.mu.Lock()
	p.sink = sink
	p.mu.Unlock()
}

func (p *Passthrough) Load(manifestURL string) {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	sink := p.sink
	p.source = manifestURL
	p.mu.Unlock()

	if sink == nil {
		p.emit(domain.EngineEvent{
			Type:  domain.EventError,
			Class: domain.ErrorClassOther,
			Fatal: true,
			Err:   errors.New("load before attach"),
		})
		return
	}
	if err := sink.SetSource(manifestURL); err != nil {
		p.emit(domain.EngineEvent{
			Type:  domain.EventError,
			Class: domain.ErrorClassMedia,
			Fatal: true,
			Err:   err,
		})
		return
	}
	p.emit(domain.EngineEvent{Type: domain.EventManifestParsed})
}

func (p *Passthrough) Events() <-chan domain.EngineEvent { return p.events }

func (p *Passthrough) Levels() []domain.QualityLevel { return nil }

func (p *Passthrough) CurrentLevel() int { return -1 }

func (p *Passthrough) SetLevel(index int) error {
	if index == -1 {
		return nil
	}
	return errors.New("passthrough engine has no selectable levels")
}

// ReloadStream re-assigns the current source, which is the closest a native
// sink comes to re-fetching a manifest.
func (p *Passthrough) ReloadStream() {
	p.mu.Lock()
	sink, source := p.sink, p.source
	p.mu.Unlock()
	if sink == nil || source == "" {
		return
	}
	if err := sink.SetSource(source); err != nil {
		p.log.Warn("stream reload failed", slog.String("error", err.Error()))
	}
}

func (p *Passthrough) RecoverMedia() {}

func (p *Passthrough) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	p.mu.Unlock()
	close(p.events)
}

// emit drops the event if the channel is full or the engine is destroyed; a
// slow consumer must not stall playback.
func (p *Passthrough) emit(ev domain.EngineEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	select {
	case p.events <- ev:
	default:
	}
}
