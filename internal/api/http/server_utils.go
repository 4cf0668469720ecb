package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"playcore/internal/domain"
)

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writePlayerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "unsupported_format", err.Error())
	case errors.Is(err, domain.ErrPlayerClosed):
		writeError(w, http.StatusConflict, "player_closed", "player is closed")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrSessionActive):
		writeError(w, http.StatusConflict, "session_active", err.Error())
	case errors.Is(err, domain.ErrNoPlayableFile):
		writeError(w, http.StatusUnprocessableEntity, "no_playable_file", err.Error())
	case errors.Is(err, domain.ErrModuleLoadFailed):
		writeError(w, http.StatusBadGateway, "module_load_failed", err.Error())
	case errors.Is(err, domain.ErrNoActiveTorrent):
		writeError(w, http.StatusNotFound, "no_active_torrent", err.Error())
	case errors.Is(err, domain.ErrPictureInPicture):
		writeError(w, http.StatusConflict, "pip_unavailable", err.Error())
	case errors.Is(err, domain.ErrNoSubtitleTrack):
		writeError(w, http.StatusNotFound, "subtitle_not_found", err.Error())
	case errors.Is(err, domain.ErrEngineDestroyed):
		writeError(w, http.StatusConflict, "engine_destroyed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorPayload{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
