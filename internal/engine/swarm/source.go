package swarm

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/anacrolix/torrent"
)

// httpSource serves the selected torrent file over a loopback HTTP endpoint
// so any sink that speaks HTTP range requests can stream it progressively.
// Reads block until the pieces they need arrive; a responsive reader would
// instead return early EOFs and truncate the stream.
type httpSource struct {
	log    *slog.Logger
	file   *torrent.File
	report func(error)

	srv *http.Server
	url string

	once sync.Once
}

func newHTTPSource(log *slog.Logger, file *torrent.File, report func(error)) *httpSource {
	return &httpSource{log: log, file: file, report: report}
}

// start binds a loopback listener and returns the stream URL.
func (s *httpSource) start() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.handleStream)
	s.srv = &http.Server{Handler: mux}
	s.url = fmt.Sprintf("http://%s/stream", ln.Addr().String())

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("stream endpoint failed", slog.String("error", err.Error()))
			if s.report != nil {
				s.report(fmt.Errorf("stream endpoint: %w", err))
			}
		}
	}()
	return s.url, nil
}

func (s *httpSource) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reader := s.file.NewReader()
	defer reader.Close()

	w.Header().Set("Content-Type", contentTypeFor(s.file.Path()))
	// Close the connection after streaming so keep-alive does not hold the
	// reader open after the sink stops playback.
	w.Header().Set("Connection", "close")

	// ServeContent handles Range, HEAD and Content-Length from the seekable
	// torrent reader.
	http.ServeContent(w, r, path.Base(s.file.Path()), time.Time{}, reader)
}

func (s *httpSource) close() {
	s.once.Do(func() {
		if s.srv != nil {
			s.srv.Close()
		}
	})
}

func contentTypeFor(filePath string) string {
	ext := strings.ToLower(path.Ext(filePath))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	switch ext {
	case ".mkv":
		return "video/x-matroska"
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	case ".flv":
		return "video/x-flv"
	default:
		return "application/octet-stream"
	}
}
