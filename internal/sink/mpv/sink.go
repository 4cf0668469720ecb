// Package mpv renders playback through an mpv process driven over its
// JSON-IPC socket. It implements both the media sink and the rendering
// surface the playback core borrows.
package mpv

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"playcore/internal/domain"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
)

// nativeMimeTypes are the formats mpv demuxes itself, with no auxiliary
// engine needed. mpv ships ffmpeg demuxers for both HLS and DASH manifests.
var nativeMimeTypes = map[string]bool{
	"application/vnd.apple.mpegurl": true,
	"application/dash+xml":          true,
	"video/mp4":                     true,
	"video/webm":                    true,
	"video/x-matroska":              true,
	"video/x-msvideo":               true,
}

// Sink drives one mpv process. The process is started idle on Start and
// reused across loads; the core treats it as a borrowed element and never
// kills it through the sink interface.
type Sink struct {
	log        *slog.Logger
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}

	ipcMu sync.Mutex

	mu      sync.Mutex
	source  string
	visible bool
	tracks  []domain.TextTrack
}

func New(log *slog.Logger) *Sink {
	return &Sink{log: log, exited: make(chan struct{})}
}

// Start launches mpv idle with an IPC socket and waits until the socket
// accepts connections.
func (s *Sink) Start() error {
	if s.socketPath == "" {
		var b [4]byte
		if _, err := rand.Read(b[:]); err != nil {
			return fmt.Errorf("generate socket name: %w", err)
		}
		s.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("playcore-%x.sock", b))
	}

	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", s.socketPath),
		"--idle=yes",
		"--force-window=no",
		"--keep-open=yes",
	}
	s.cmd = exec.Command("mpv", args...)
	s.cmd.Stdout = nil
	s.cmd.Stderr = nil
	s.cmd.Stdin = nil

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}
	go func() {
		_ = s.cmd.Wait()
		close(s.exited)
	}()

	if err := s.waitForSocket(); err != nil {
		select {
		case <-s.exited:
		default:
			_ = s.cmd.Process.Kill()
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}
	s.log.Info("mpv sink started", slog.String("socket", s.socketPath))
	return nil
}

func (s *Sink) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)
		select {
		case <-s.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}
		conn, err := net.Dial("unix", s.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", s.socketPath, socketWaitRetries)
}

// Shutdown asks mpv to quit. The sink is unusable afterwards; this is for
// the composition root, not the playback core.
func (s *Sink) Shutdown() {
	_, _ = s.command("quit")
	select {
	case <-s.exited:
	case <-time.After(2 * time.Second):
		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
	}
}

// Exited is closed when the mpv process terminates.
func (s *Sink) Exited() <-chan struct{} { return s.exited }

func (s *Sink) SetSource(url string) error {
	if _, err := s.command("loadfile", url, "replace"); err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	s.mu.Lock()
	s.source = url
	s.tracks = nil
	s.mu.Unlock()
	return nil
}

func (s *Sink) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func (s *Sink) ClearSource() {
	_, _ = s.command("stop")
	s.mu.Lock()
	s.source = ""
	s.tracks = nil
	s.mu.Unlock()
}

func (s *Sink) Play() error {
	if err := s.setProperty("pause", false); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	return nil
}

func (s *Sink) Pause() {
	if err := s.setProperty("pause", true); err != nil {
		s.log.Warn("pause failed", slog.String("error", err.Error()))
	}
}

func (s *Sink) Playing() bool {
	paused, ok := s.boolProperty("pause")
	if !ok {
		return false
	}
	if _, loaded := s.floatProperty("time-pos"); !loaded {
		return false
	}
	return !paused
}

func (s *Sink) CurrentTime() float64 {
	v, _ := s.floatProperty("time-pos")
	return v
}

func (s *Sink) SetCurrentTime(seconds float64) {
	if _, err := s.command("seek", seconds, "absolute"); err != nil {
		s.log.Warn("seek failed", slog.String("error", err.Error()))
	}
}

func (s *Sink) Duration() float64 {
	v, _ := s.floatProperty("duration")
	return v
}

// Volume maps mpv's 0-100 scale onto [0,1].
func (s *Sink) Volume() float64 {
	v, ok := s.floatProperty("volume")
	if !ok {
		return 0
	}
	return clamp01(v / 100)
}

func (s *Sink) SetVolume(v float64) {
	if err := s.setProperty("volume", clamp01(v)*100); err != nil {
		s.log.Warn("set volume failed", slog.String("error", err.Error()))
	}
}

func (s *Sink) Muted() bool {
	v, _ := s.boolProperty("mute")
	return v
}

func (s *Sink) SetMuted(muted bool) {
	if err := s.setProperty("mute", muted); err != nil {
		s.log.Warn("set mute failed", slog.String("error", err.Error()))
	}
}

func (s *Sink) CanPlayNative(mimeType string) bool {
	return nativeMimeTypes[mimeType]
}

func (s *Sink) AddTextTrack(url, label, language string) {
	if _, err := s.command("sub-add", url, "auto", label, language); err != nil {
		s.log.Warn("add subtitle failed", slog.String("error", err.Error()))
		return
	}
	s.mu.Lock()
	s.tracks = append(s.tracks, domain.TextTrack{URL: url, Label: label, Language: language})
	s.mu.Unlock()
}

func (s *Sink) TextTracks() []domain.TextTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TextTrack, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// SetActiveTextTrack shows exactly one track. mpv subtitle ids are 1-based.
func (s *Sink) SetActiveTextTrack(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.tracks) {
		s.mu.Unlock()
		return domain.ErrNoSubtitleTrack
	}
	for i := range s.tracks {
		s.tracks[i].Active = i == index
	}
	s.mu.Unlock()
	return s.setProperty("sid", index+1)
}

func (s *Sink) DisableTextTracks() {
	s.mu.Lock()
	for i := range s.tracks {
		s.tracks[i].Active = false
	}
	s.mu.Unlock()
	if err := s.setProperty("sid", "no"); err != nil {
		s.log.Warn("disable subtitles failed", slog.String("error", err.Error()))
	}
}

// Surface implementation. mpv's window is the rendering surface.

func (s *Sink) Show() {
	s.mu.Lock()
	s.visible = true
	s.mu.Unlock()
	if err := s.setProperty("force-window", "yes"); err != nil {
		s.log.Warn("show window failed", slog.String("error", err.Error()))
	}
	_ = s.setProperty("window-minimized", false)
}

func (s *Sink) Hide() {
	s.mu.Lock()
	s.visible = false
	s.mu.Unlock()
	if err := s.setProperty("window-minimized", true); err != nil {
		s.log.Warn("hide window failed", slog.String("error", err.Error()))
	}
}

func (s *Sink) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *Sink) RequestFullscreen() error {
	return s.setProperty("fullscreen", true)
}

func (s *Sink) ExitFullscreen() error {
	return s.setProperty("fullscreen", false)
}

func (s *Sink) Fullscreen() bool {
	v, _ := s.boolProperty("fullscreen")
	return v
}

// mpv has no picture-in-picture mode; the closest approximation is an
// always-on-top window, which is not the same contract. Report unsupported.
func (s *Sink) EnterPiP() error {
	return fmt.Errorf("%w: mpv surface", domain.ErrPictureInPicture)
}

func (s *Sink) ExitPiP() error {
	return fmt.Errorf("%w: mpv surface", domain.ErrPictureInPicture)
}

func (s *Sink) InPiP() bool { return false }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
