package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apihttp "playcore/internal/api/http"
	"playcore/internal/app"
	"playcore/internal/backend"
	"playcore/internal/domain"
	"playcore/internal/domain/ports"
	"playcore/internal/engine/swarm"
	"playcore/internal/metrics"
	"playcore/internal/player"
	"playcore/internal/sink/headless"
	"playcore/internal/sink/mpv"
	"playcore/internal/telemetry"
)

var playerStates = []string{
	string(domain.PlayerIdle),
	string(domain.PlayerLoading),
	string(domain.PlayerPlaying),
	string(domain.PlayerPaused),
	string(domain.PlayerError),
	string(domain.PlayerClosed),
}

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "playcore")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "playcore"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("dataDir", cfg.TorrentDataDir),
		slog.Bool("mpvEnabled", cfg.MPVEnabled),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		sink    ports.MediaSink
		surface ports.Surface
	)
	if cfg.MPVEnabled {
		m := mpv.New(logger)
		if err := m.Start(); err != nil {
			logger.Error("mpv start failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer m.Shutdown()
		sink, surface = m, m
	} else {
		h := headless.New(logger)
		sink, surface = h, h
	}

	swarmPlayer := swarm.New(logger, swarm.Config{
		DataDir:       cfg.TorrentDataDir,
		StatsInterval: cfg.StatsInterval(),
	})
	defer swarmPlayer.Destroy()

	loader := backend.NewLoader(logger)
	backend.RegisterDefaults(loader, logger)
	loader.Observe(func(f domain.StreamFormat, err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.BackendModuleLoadsTotal.WithLabelValues(string(f), outcome).Inc()
	})

	// Set before the player starts dispatching callbacks; the first HTTP
	// request cannot arrive until ListenAndServe below.
	var api *apihttp.Server

	core, err := loader.CreatePlayer(logger, player.Options{
		Sink:    sink,
		Surface: surface,
		Swarm: func(ctx context.Context, reference string, onStats func(domain.SwarmStats)) (string, error) {
			return swarmPlayer.Load(ctx, reference, onStats)
		},
		OnStateChange: func(state domain.PlayerState) {
			metrics.SetPlayerState(playerStates, string(state))
			if api != nil {
				api.BroadcastState()
			}
		},
		OnStats: func(stats domain.SwarmStats) {
			metrics.DownloadSpeedBytes.Set(float64(stats.DownloadSpeed))
			metrics.UploadSpeedBytes.Set(float64(stats.UploadSpeed))
			metrics.SwarmProgress.Set(stats.Progress)
			metrics.PeersConnected.Set(float64(stats.NumPeers))
			if api != nil {
				api.BroadcastSwarmStats(stats)
			}
		},
		OnRecovery: func(class domain.ErrorClass) {
			metrics.EngineRecoveriesTotal.WithLabelValues(string(class)).Inc()
		},
	})
	if err != nil {
		logger.Error("player init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer core.Destroy()

	metrics.SetPlayerState(playerStates, string(core.State()))

	api = apihttp.NewServer(core,
		apihttp.WithLogger(logger),
		apihttp.WithSwarm(swarmPlayer),
		apihttp.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	// Surface stream-server failures from the swarm transport in the log.
	go func() {
		for {
			select {
			case <-rootCtx.Done():
				return
			case err := <-swarmPlayer.Errors():
				logger.Error("swarm stream error", slog.String("error", err.Error()))
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("server started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	api.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", slog.String("error", err.Error()))
	}
	core.Close()

	logger.Info("server stopped")
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
