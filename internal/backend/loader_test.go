package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"playcore/internal/domain"
	"playcore/internal/domain/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func passthroughModule(log *slog.Logger) ModuleLoader {
	return func(ctx context.Context) (EngineFactory, error) {
		return func() ports.ManifestEngine { return NewPassthrough(log) }, nil
	}
}

func TestPreloadCoalescesConcurrentLoads(t *testing.T) {
	log := testLogger()
	var calls atomic.Int32
	gate := make(chan struct{})

	l := NewLoader(log)
	l.Register(domain.FormatHLS, func(ctx context.Context) (EngineFactory, error) {
		calls.Add(1)
		<-gate
		return func() ports.ManifestEngine { return NewPassthrough(log) }, nil
	})

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.Preload(context.Background(), domain.FormatHLS)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("preload %d: %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one module load, got %d", got)
	}
}

func TestFailedLoadClearsSlotForRetry(t *testing.T) {
	log := testLogger()
	var calls atomic.Int32

	l := NewLoader(log)
	l.Register(domain.FormatHLS, func(ctx context.Context) (EngineFactory, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("fetch failed")
		}
		return func() ports.ManifestEngine { return NewPassthrough(log) }, nil
	})

	err := l.Preload(context.Background(), domain.FormatHLS)
	if !errors.Is(err, domain.ErrModuleLoadFailed) {
		t.Fatalf("expected ErrModuleLoadFailed, got %v", err)
	}
	if err := l.Preload(context.Background(), domain.FormatHLS); err != nil {
		t.Fatalf("retry after failed load: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 module loads, got %d", got)
	}
}

func TestPreloadIsIdempotent(t *testing.T) {
	log := testLogger()
	var calls atomic.Int32

	l := NewLoader(log)
	l.Register(domain.FormatHLS, func(ctx context.Context) (EngineFactory, error) {
		calls.Add(1)
		return func() ports.ManifestEngine { return NewPassthrough(log) }, nil
	})

	for i := 0; i < 3; i++ {
		if err := l.Preload(context.Background(), domain.FormatHLS); err != nil {
			t.Fatalf("preload %d: %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one module load, got %d", got)
	}
}

func TestEngineReturnsIndependentInstances(t *testing.T) {
	log := testLogger()
	l := NewLoader(log)
	l.Register(domain.FormatDirect, passthroughModule(log))

	a, err := l.Engine(context.Background(), domain.FormatDirect)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	b, err := l.Engine(context.Background(), domain.FormatDirect)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct engine instances")
	}
}

func TestIsFormatSupported(t *testing.T) {
	l := NewLoader(testLogger())
	for _, f := range domain.KnownFormats {
		if !l.IsFormatSupported(f) {
			t.Errorf("expected %q supported", f)
		}
	}
	if l.IsFormatSupported(domain.StreamFormat("rtsp")) {
		t.Error("expected unknown format unsupported")
	}
}

func TestPreloadUnknownFormat(t *testing.T) {
	l := NewLoader(testLogger())
	err := l.Preload(context.Background(), domain.StreamFormat("rtsp"))
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestPreloadUnregisteredModule(t *testing.T) {
	l := NewLoader(testLogger())
	err := l.Preload(context.Background(), domain.FormatDASH)
	if !errors.Is(err, domain.ErrModuleLoadFailed) {
		t.Fatalf("expected ErrModuleLoadFailed, got %v", err)
	}
}

func TestPreloadContextCancel(t *testing.T) {
	l := NewLoader(testLogger())
	gate := make(chan struct{})
	defer close(gate)
	l.Register(domain.FormatHLS, func(ctx context.Context) (EngineFactory, error) {
		<-gate
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Preload(ctx, domain.FormatHLS); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
