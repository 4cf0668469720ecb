package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"playcore/internal/domain"
	"playcore/internal/domain/ports"
	"playcore/internal/format"
)

// EngineLoader materializes the transport engine for a format. Provided by
// the backend loader so engine modules stay lazily loaded and shared.
type EngineLoader func(ctx context.Context, f domain.StreamFormat) (ports.ManifestEngine, error)

// SwarmLoader starts a torrent session for a reference and returns the local
// URL the sink streams it from.
type SwarmLoader func(ctx context.Context, reference string, onStats func(domain.SwarmStats)) (string, error)

// Options binds a player to the rendering surface its caller owns. The
// player borrows the sink and surface for its lifecycle and never destroys
// them.
type Options struct {
	Sink    ports.MediaSink
	Surface ports.Surface

	Engines EngineLoader
	Swarm   SwarmLoader

	// OnClose is invoked once when the player closes.
	OnClose func()
	// OnStateChange observes every state transition. Called outside the
	// player lock; must not call back into the player synchronously.
	OnStateChange func(domain.PlayerState)
	// OnStats observes swarm statistics during torrent playback.
	OnStats func(domain.SwarmStats)
	// OnRecovery observes every fatal engine error by class, after the
	// recovery action (or teardown) has been dispatched.
	OnRecovery func(domain.ErrorClass)
}

// Player is the unified playback state machine. It owns at most one attached
// transport engine at a time and exposes transport-agnostic controls over
// the borrowed sink and surface.
//
// Load is asynchronous past format detection: the player enters Loading and
// reaches Playing only once the engine reports a parsed manifest and the
// sink starts, not merely once a source is assigned.
type Player struct {
	log     *slog.Logger
	sink    ports.MediaSink
	surface ports.Surface
	opts    Options

	mu         sync.Mutex
	state      domain.PlayerState
	engine     ports.ManifestEngine
	format     domain.StreamFormat
	title      string
	levels     []domain.QualityLevel
	generation uint64
	closed     bool
}

func New(log *slog.Logger, opts Options) (*Player, error) {
	if opts.Sink == nil {
		return nil, errors.New("player requires a media sink")
	}
	if opts.Surface == nil {
		return nil, errors.New("player requires a rendering surface")
	}
	return &Player{
		log:     log,
		sink:    opts.Sink,
		surface: opts.Surface,
		opts:    opts,
		state:   domain.PlayerIdle,
	}, nil
}

func (p *Player) State() domain.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Format() domain.StreamFormat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format
}

func (p *Player) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

// LoadVideo tears down any attached engine, re-detects the format of
// reference and starts the matching transport. A new call while a load is in
// flight supersedes it: completions of the older load are discarded.
func (p *Player) LoadVideo(ctx context.Context, reference, title string) error {
	p.mu.Lock()
	if p.state == domain.PlayerClosed {
		p.mu.Unlock()
		return domain.ErrPlayerClosed
	}
	if !domain.CanPlayerTransition(p.state, domain.PlayerLoading) {
		from := p.state
		p.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, domain.PlayerLoading)
	}
	p.generation++
	gen := p.generation
	old := p.engine
	p.engine = nil
	p.levels = nil

	info := format.Info(reference)
	p.format = info.Format
	p.title = title
	p.setStateLocked(domain.PlayerLoading)
	p.mu.Unlock()

	// The old engine is fully torn down before the new one exists, so a
	// stale engine can never land on the sink.
	if old != nil {
		old.Destroy()
	}

	p.log.Info("loading video",
		slog.String("format", string(info.Format)),
		slog.String("title", title))
	p.surface.Show()

	switch info.Format {
	case domain.FormatTorrent:
		return p.loadTorrent(ctx, gen, reference)
	case domain.FormatHLS:
		if format.IsNativelySupported(p.sink, domain.FormatHLS) {
			return p.loadNative(gen, reference)
		}
		return p.loadEngine(ctx, gen, domain.FormatHLS, reference)
	case domain.FormatDASH:
		return p.loadEngine(ctx, gen, domain.FormatDASH, reference)
	default:
		return p.loadEngine(ctx, gen, domain.FormatDirect, reference)
	}
}

// loadNative assigns the manifest straight to a sink that plays the format
// itself, bypassing engine loading entirely.
func (p *Player) loadNative(gen uint64, reference string) error {
	if err := p.sink.SetSource(reference); err != nil {
		return p.failLoad(gen, fmt.Errorf("assign source: %w", err))
	}
	return p.startPlayback(gen)
}

func (p *Player) loadTorrent(ctx context.Context, gen uint64, reference string) error {
	if p.opts.Swarm == nil {
		return p.failLoad(gen, errors.New("no swarm transport configured"))
	}
	streamURL, err := p.opts.Swarm(ctx, reference, p.opts.OnStats)
	if err != nil {
		return p.failLoad(gen, err)
	}
	if p.stale(gen) {
		return nil
	}
	if err := p.sink.SetSource(streamURL); err != nil {
		return p.failLoad(gen, fmt.Errorf("assign source: %w", err))
	}
	return p.startPlayback(gen)
}

func (p *Player) loadEngine(ctx context.Context, gen uint64, f domain.StreamFormat, reference string) error {
	if p.opts.Engines == nil {
		return p.failLoad(gen, errors.New("no engine loader configured"))
	}
	eng, err := p.opts.Engines(ctx, f)
	if err != nil {
		return p.failLoad(gen, err)
	}

	p.mu.Lock()
	if gen != p.generation || p.state == domain.PlayerClosed {
		p.mu.Unlock()
		eng.Destroy()
		return nil
	}
	p.engine = eng
	p.mu.Unlock()

	eng.Attach(p.sink)
	go p.consumeEvents(gen, eng)
	eng.Load(reference)
	return nil
}

// consumeEvents drives the state machine from one engine's event stream. It
// exits when the engine is destroyed and its channel closes. Events from a
// superseded load are discarded by the generation check.
func (p *Player) consumeEvents(gen uint64, eng ports.ManifestEngine) {
	for ev := range eng.Events() {
		if p.stale(gen) {
			return
		}
		switch ev.Type {
		case domain.EventManifestParsed:
			p.mu.Lock()
			p.levels = ev.Levels
			p.mu.Unlock()
			if err := p.startPlayback(gen); err != nil {
				p.log.Error("start playback", slog.String("error", err.Error()))
			}
		case domain.EventLevelSwitched:
			p.log.Info("quality level switched", slog.Int("level", ev.Level))
		case domain.EventError:
			p.handleEngineError(gen, eng, ev)
		}
	}
}

// handleEngineError implements the recovery policy: fatal network errors get
// a stream reload, fatal media errors a media recovery, anything else fatal
// tears the engine down and moves the player to Error. Non-fatal errors are
// logged and ignored.
func (p *Player) handleEngineError(gen uint64, eng ports.ManifestEngine, ev domain.EngineEvent) {
	if !ev.Fatal {
		p.log.Warn("engine error",
			slog.String("class", string(ev.Class)),
			slog.String("error", errText(ev.Err)))
		return
	}
	if p.opts.OnRecovery != nil {
		defer p.opts.OnRecovery(ev.Class)
	}
	switch ev.Class {
	case domain.ErrorClassNetwork:
		p.log.Warn("fatal network error, reloading stream", slog.String("error", errText(ev.Err)))
		eng.ReloadStream()
	case domain.ErrorClassMedia:
		p.log.Warn("fatal media error, recovering pipeline", slog.String("error", errText(ev.Err)))
		eng.RecoverMedia()
	default:
		p.log.Error("fatal playback error", slog.String("error", errText(ev.Err)))
		p.mu.Lock()
		if gen != p.generation {
			p.mu.Unlock()
			return
		}
		p.engine = nil
		p.setStateLocked(domain.PlayerError)
		p.mu.Unlock()
		eng.Destroy()
	}
}

func (p *Player) startPlayback(gen uint64) error {
	if p.stale(gen) {
		return nil
	}
	if err := p.sink.Play(); err != nil {
		return p.failLoad(gen, fmt.Errorf("start sink: %w", err))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return nil
	}
	p.setStateLocked(domain.PlayerPlaying)
	return nil
}

// failLoad moves the player to Error unless the load has been superseded,
// and returns err either way so synchronous callers see the failure.
func (p *Player) failLoad(gen uint64, err error) error {
	p.mu.Lock()
	if gen != p.generation || p.state == domain.PlayerClosed {
		p.mu.Unlock()
		return err
	}
	p.setStateLocked(domain.PlayerError)
	p.mu.Unlock()
	p.log.Error("video load failed", slog.String("error", err.Error()))
	return err
}

func (p *Player) stale(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen != p.generation
}

// setStateLocked applies a transition. Caller holds p.mu. Self transitions
// are no-ops; invalid transitions are logged and dropped rather than
// corrupting the machine.
func (p *Player) setStateLocked(to domain.PlayerState) {
	from := p.state
	if from == to {
		return
	}
	if !domain.CanPlayerTransition(from, to) {
		p.log.Warn("dropped invalid state transition",
			slog.String("from", string(from)),
			slog.String("to", string(to)))
		return
	}
	p.state = to
	p.log.Debug("player state changed",
		slog.String("from", string(from)),
		slog.String("to", string(to)))
	if p.opts.OnStateChange != nil {
		go p.opts.OnStateChange(to)
	}
}

// Levels lists the quality levels of the current adaptive stream; empty for
// non-adaptive transports.
func (p *Player) Levels() []domain.QualityLevel {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.QualityLevel, len(p.levels))
	copy(out, p.levels)
	return out
}

func (p *Player) CurrentLevel() int {
	p.mu.Lock()
	eng := p.engine
	p.mu.Unlock()
	if eng == nil {
		return -1
	}
	return eng.CurrentLevel()
}

// SetLevel pins a quality level on the attached engine; -1 restores
// automatic selection.
func (p *Player) SetLevel(index int) error {
	p.mu.Lock()
	eng := p.engine
	p.mu.Unlock()
	if eng == nil {
		return errors.New("no adaptive engine attached")
	}
	return eng.SetLevel(index)
}

// Close pauses the sink, hides the surface and fires the close callback.
// Valid from any state, idempotent.
func (p *Player) Close() {
	p.mu.Lock()
	alreadyClosed := p.closed
	p.closed = true
	p.setStateLocked(domain.PlayerClosed)
	p.mu.Unlock()
	if alreadyClosed {
		return
	}

	p.sink.Pause()
	p.surface.Hide()
	if p.opts.OnClose != nil {
		p.opts.OnClose()
	}
	p.log.Info("player closed")
}

// Destroy tears down the attached engine and releases the sink. Safe without
// a prior Close, valid from any state, idempotent.
func (p *Player) Destroy() {
	p.mu.Lock()
	eng := p.engine
	p.engine = nil
	p.generation++ // invalidate in-flight load completions
	p.setStateLocked(domain.PlayerClosed)
	p.mu.Unlock()

	if eng != nil {
		eng.Destroy()
	}
	p.sink.Pause()
	p.sink.ClearSource()
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
