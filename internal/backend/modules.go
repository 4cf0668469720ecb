package backend

import (
	"context"
	"log/slog"

	"playcore/internal/domain"
	"playcore/internal/domain/ports"
	"playcore/internal/engine/hls"
	"playcore/internal/player"
)

// RegisterDefaults wires the built-in engine modules: the HLS engine for
// adaptive manifests and the passthrough engine for formats the sink plays
// directly. Torrent references also get a passthrough module: the swarm
// transport resolves the swarm into a local direct stream URL, so by the
// time an engine sees it there is nothing left to parse.
func RegisterDefaults(l *Loader, log *slog.Logger) {
	l.Register(domain.FormatHLS, func(ctx context.Context) (EngineFactory, error) {
		return func() ports.ManifestEngine { return hls.New(log, nil) }, nil
	})
	l.Register(domain.FormatDASH, func(ctx context.Context) (EngineFactory, error) {
		return func() ports.ManifestEngine { return NewPassthrough(log) }, nil
	})
	l.Register(domain.FormatDirect, func(ctx context.Context) (EngineFactory, error) {
		return func() ports.ManifestEngine { return NewPassthrough(log) }, nil
	})
	l.Register(domain.FormatTorrent, func(ctx context.Context) (EngineFactory, error) {
		return func() ports.ManifestEngine { return NewPassthrough(log) }, nil
	})
}

// CreatePlayer constructs an independent unified player bound to the sink
// and surface in opts, wired to this loader for its transport engines.
// Engine modules stay shared across players; player instances do not.
func (l *Loader) CreatePlayer(log *slog.Logger, opts player.Options) (*player.Player, error) {
	if opts.Engines == nil {
		opts.Engines = l.Engine
	}
	return player.New(log, opts)
}
