package apihttp

import (
	"net/http"
	"strings"

	"playcore/internal/domain"
	"playcore/internal/metrics"
)

type loadRequest struct {
	Reference string `json:"reference"`
	Title     string `json:"title"`
}

type commandRequest struct {
	Command  string           `json:"command"`
	Value    *float64         `json:"value,omitempty"`
	Index    *int             `json:"index,omitempty"`
	Key      string           `json:"key,omitempty"`
	Subtitle *subtitleRequest `json:"subtitle,omitempty"`
}

type subtitleRequest struct {
	URL      string `json:"url"`
	Label    string `json:"label"`
	Language string `json:"language"`
}

type playerStateResponse struct {
	State        domain.PlayerState    `json:"state"`
	Format       domain.StreamFormat   `json:"format,omitempty"`
	Title        string                `json:"title,omitempty"`
	Levels       []domain.QualityLevel `json:"levels,omitempty"`
	CurrentLevel int                   `json:"currentLevel"`
	Subtitles    []domain.TextTrack    `json:"subtitles,omitempty"`
}

type levelsResponse struct {
	Levels       []domain.QualityLevel `json:"levels"`
	CurrentLevel int                   `json:"currentLevel"`
}

type swarmStatsResponse struct {
	Stats     domain.SwarmStats `json:"stats"`
	File      *domain.FileRef   `json:"file,omitempty"`
	StreamURL string            `json:"streamUrl,omitempty"`
}

type keyResponse struct {
	Handled bool `json:"handled"`
}

func (s *Server) stateSnapshot() playerStateResponse {
	return playerStateResponse{
		State:        s.player.State(),
		Format:       s.player.Format(),
		Title:        s.player.Title(),
		Levels:       s.player.Levels(),
		CurrentLevel: s.player.CurrentLevel(),
		Subtitles:    s.player.Subtitles(),
	}
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}
	var req loadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	req.Reference = strings.TrimSpace(req.Reference)
	if req.Reference == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "reference is required")
		return
	}
	if err := s.player.LoadVideo(r.Context(), req.Reference, req.Title); err != nil {
		metrics.LoadFailuresTotal.WithLabelValues(formatLabel(s.player.Format())).Inc()
		writePlayerError(w, err)
		return
	}
	metrics.LoadsTotal.WithLabelValues(formatLabel(s.player.Format())).Inc()
	writeJSON(w, http.StatusOK, s.stateSnapshot())
}

func formatLabel(f domain.StreamFormat) string {
	if f == "" {
		return "unknown"
	}
	return string(f)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}
	s.player.Close()
	writeJSON(w, http.StatusOK, s.stateSnapshot())
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}
	var req commandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	switch req.Command {
	case "toggle_play":
		if err := s.player.TogglePlay(); err != nil {
			writePlayerError(w, err)
			return
		}
	case "seek_by":
		if req.Value == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "seek_by requires value")
			return
		}
		s.player.SeekBy(*req.Value)
	case "toggle_mute":
		s.player.ToggleMute()
	case "change_volume":
		if req.Value == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "change_volume requires value")
			return
		}
		s.player.ChangeVolume(*req.Value)
	case "toggle_fullscreen":
		if err := s.player.ToggleFullscreen(); err != nil {
			writePlayerError(w, err)
			return
		}
	case "toggle_pip":
		if err := s.player.TogglePiP(); err != nil {
			writePlayerError(w, err)
			return
		}
	case "set_level":
		if req.Index == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "set_level requires index")
			return
		}
		if err := s.player.SetLevel(*req.Index); err != nil {
			writePlayerError(w, err)
			return
		}
	case "add_subtitle":
		if req.Subtitle == nil || strings.TrimSpace(req.Subtitle.URL) == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "add_subtitle requires subtitle.url")
			return
		}
		s.player.AddSubtitle(req.Subtitle.URL, req.Subtitle.Label, req.Subtitle.Language)
	case "select_subtitle":
		if req.Index == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "select_subtitle requires index")
			return
		}
		if err := s.player.SelectSubtitle(*req.Index); err != nil {
			writePlayerError(w, err)
			return
		}
	case "disable_subtitles":
		s.player.DisableSubtitles()
	case "key":
		if req.Key == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "key command requires key")
			return
		}
		writeJSON(w, http.StatusOK, keyResponse{Handled: s.player.HandleKey(req.Key)})
		return
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "unknown command")
		return
	}
	writeJSON(w, http.StatusOK, s.stateSnapshot())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	writeJSON(w, http.StatusOK, s.stateSnapshot())
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	levels := s.player.Levels()
	if levels == nil {
		levels = []domain.QualityLevel{}
	}
	writeJSON(w, http.StatusOK, levelsResponse{Levels: levels, CurrentLevel: s.player.CurrentLevel()})
}

func (s *Server) handleSubtitles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		tracks := s.player.Subtitles()
		if tracks == nil {
			tracks = []domain.TextTrack{}
		}
		writeJSON(w, http.StatusOK, tracks)
	case http.MethodPost:
		var req subtitleRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "url is required")
			return
		}
		s.player.AddSubtitle(req.URL, req.Label, req.Language)
		writeJSON(w, http.StatusCreated, s.player.Subtitles())
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET or POST")
	}
}

func (s *Server) handleSwarmStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	if s.swarm == nil {
		writePlayerError(w, domain.ErrNoActiveTorrent)
		return
	}
	stats := s.swarm.Stats()
	if stats == nil {
		writePlayerError(w, domain.ErrNoActiveTorrent)
		return
	}
	resp := swarmStatsResponse{Stats: *stats, StreamURL: s.swarm.StreamURL()}
	if file, ok := s.swarm.SelectedFile(); ok {
		resp.File = &file
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  string(s.player.State()),
	})
}
