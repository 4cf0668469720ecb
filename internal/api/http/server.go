package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"playcore/internal/domain"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// PlayerController is the slice of the unified player the control API drives.
type PlayerController interface {
	State() domain.PlayerState
	Format() domain.StreamFormat
	Title() string
	LoadVideo(ctx context.Context, reference, title string) error
	Close()
	TogglePlay() error
	SeekBy(offset float64)
	ToggleMute()
	ChangeVolume(delta float64)
	ToggleFullscreen() error
	TogglePiP() error
	SetLevel(index int) error
	Levels() []domain.QualityLevel
	CurrentLevel() int
	AddSubtitle(url, label, language string)
	Subtitles() []domain.TextTrack
	SelectSubtitle(index int) error
	DisableSubtitles()
	HandleKey(key string) bool
}

// SwarmStatsSource exposes the active swarm session, if any.
type SwarmStatsSource interface {
	Stats() *domain.SwarmStats
	SelectedFile() (domain.FileRef, bool)
	StreamURL() string
}

type Server struct {
	player         PlayerController
	swarm          SwarmStatsSource
	logger         *slog.Logger
	handler        http.Handler
	wsHub          *wsHub
	rateLimitRPS   float64
	rateLimitBurst int
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithSwarm(swarm SwarmStatsSource) ServerOption {
	return func(s *Server) {
		s.swarm = swarm
	}
}

// WithRateLimit overrides the default global token-bucket settings.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		s.rateLimitRPS = rps
		s.rateLimitBurst = burst
	}
}

func NewServer(player PlayerController, opts ...ServerOption) *Server {
	s := &Server{
		player:         player,
		rateLimitRPS:   100,
		rateLimitBurst: 200,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.wsHub = newWSHub(s.logger)
	go s.wsHub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/player/load", s.handleLoad)
	mux.HandleFunc("/player/close", s.handleClose)
	mux.HandleFunc("/player/command", s.handleCommand)
	mux.HandleFunc("/player/state", s.handleState)
	mux.HandleFunc("/player/levels", s.handleLevels)
	mux.HandleFunc("/player/subtitles", s.handleSubtitles)
	mux.HandleFunc("/swarm/stats", s.handleSwarmStats)
	mux.HandleFunc("/internal/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "playcore",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/internal/health" && !strings.HasPrefix(p, "/ws")
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(s.rateLimitRPS, s.rateLimitBurst, metricsMiddleware(corsMiddleware(traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.wsHub == nil {
		http.Error(w, "websocket not available", http.StatusServiceUnavailable)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.wsHub.register <- client
	go client.writePump()
	go client.readPump()
}

// BroadcastState pushes the current player snapshot to all WebSocket clients.
func (s *Server) BroadcastState() {
	if s.wsHub == nil {
		return
	}
	s.wsHub.BroadcastPlayerState(s.stateSnapshot())
}

// BroadcastSwarmStats pushes a swarm stats sample to all WebSocket clients.
func (s *Server) BroadcastSwarmStats(stats domain.SwarmStats) {
	if s.wsHub == nil {
		return
	}
	s.wsHub.BroadcastSwarmStats(stats)
}

// Close shuts down the WebSocket hub, disconnecting all clients.
func (s *Server) Close() {
	if s.wsHub != nil {
		s.wsHub.Close()
	}
}
