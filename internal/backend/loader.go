package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"playcore/internal/domain"
	"playcore/internal/domain/ports"
)

// EngineFactory builds a fresh, unattached engine instance. Factories are the
// product of a module load and are shared; the engines they produce are not.
type EngineFactory func() ports.ManifestEngine

// ModuleLoader materializes the backend module for one format. It may be
// expensive (network fetch, client bootstrap); the Loader guarantees it runs
// at most once at a time per format.
type ModuleLoader func(ctx context.Context) (EngineFactory, error)

// Loader lazily loads backend modules and memoizes the in-flight load per
// format, so concurrent Preload calls for the same format coalesce onto one
// underlying fetch. A failed load clears its slot, so a later call retries
// instead of replaying the cached failure forever.
type Loader struct {
	log *slog.Logger

	observe func(format domain.StreamFormat, err error)

	mu      sync.Mutex
	modules map[domain.StreamFormat]ModuleLoader
	loads   map[domain.StreamFormat]*loadEntry
}

type loadEntry struct {
	done    chan struct{}
	factory EngineFactory
	err     error
}

func NewLoader(log *slog.Logger) *Loader {
	return &Loader{
		log:     log,
		modules: make(map[domain.StreamFormat]ModuleLoader),
		loads:   make(map[domain.StreamFormat]*loadEntry),
	}
}

// Register binds a module loader to a format. Registration happens at
// composition time, before the loader is shared across goroutines.
func (l *Loader) Register(format domain.StreamFormat, module ModuleLoader) {
	l.modules[format] = module
}

// Observe registers a callback invoked after every completed module load
// with its outcome. Set at composition time, before the loader is shared.
func (l *Loader) Observe(fn func(format domain.StreamFormat, err error)) {
	l.observe = fn
}

// IsFormatSupported reports whether a format has an engine path. All four
// known formats are supported; anything else is not.
func (l *Loader) IsFormatSupported(format domain.StreamFormat) bool {
	return format.Known()
}

// Preload ensures the module for format is resident. Idempotent; concurrent
// calls share one in-flight load.
func (l *Loader) Preload(ctx context.Context, format domain.StreamFormat) error {
	_, err := l.await(ctx, format)
	return err
}

// Engine ensures the module for format is resident and constructs a new
// engine instance from it. Each call yields an independent engine.
func (l *Loader) Engine(ctx context.Context, format domain.StreamFormat) (ports.ManifestEngine, error) {
	factory, err := l.await(ctx, format)
	if err != nil {
		return nil, err
	}
	return factory(), nil
}

func (l *Loader) await(ctx context.Context, format domain.StreamFormat) (EngineFactory, error) {
	if !format.Known() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}

	l.mu.Lock()
	entry, ok := l.loads[format]
	if !ok {
		module, registered := l.modules[format]
		if !registered {
			l.mu.Unlock()
			return nil, fmt.Errorf("%w: no module registered for %q", domain.ErrModuleLoadFailed, format)
		}
		entry = &loadEntry{done: make(chan struct{})}
		l.loads[format] = entry
		go l.run(format, module, entry)
	}
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-entry.done:
	}
	return entry.factory, entry.err
}

// run executes one module load. It uses its own context because the result
// is shared by every waiter, including ones that arrive later; a single
// caller backing out must not cancel the load for the rest.
func (l *Loader) run(format domain.StreamFormat, module ModuleLoader, entry *loadEntry) {
	factory, err := module(context.Background())
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrModuleLoadFailed, err)
	}

	l.mu.Lock()
	entry.factory, entry.err = factory, err
	if err != nil {
		delete(l.loads, format)
	}
	l.mu.Unlock()

	// Observers run before waiters are released so an outcome is never
	// reported after its load has already been acted on.
	if l.observe != nil {
		l.observe(format, err)
	}
	close(entry.done)

	if err != nil {
		l.log.Error("backend module load failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return
	}
	l.log.Debug("backend module loaded", slog.String("format", string(format)))
}
