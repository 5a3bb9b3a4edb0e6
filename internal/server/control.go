package server

import (
	"errors"
	"net/http"

	"github.com/ayusman/airboard/internal/app"
	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/server/api"
)

type layoutResponse struct {
	Keys []gesture.KeyRect `json:"keys"`
}

func newLayoutResponse(keys []gesture.KeyRect) layoutResponse {
	if keys == nil {
		keys = []gesture.KeyRect{}
	}
	return layoutResponse{Keys: keys}
}

// handleState handles GET /api/state, /api/tracking and /api/mode.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.config.App.Status()
	if err != nil {
		writeControlError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, st)
}

// handleSetTracking handles PUT /api/tracking.
func (s *Server) handleSetTracking(w http.ResponseWriter, r *http.Request) {
	var req TrackingData
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.config.App.SetTracking(req.Enabled); err != nil {
		writeControlError(w, err)
		return
	}
	s.handleState(w, r)
}

// handleSetMode handles PUT /api/mode.
func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req ModeData
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.config.App.SetMode(req.Mode); err != nil {
		writeControlError(w, err)
		return
	}
	s.handleState(w, r)
}

// handleLayout handles GET /api/layout.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	keys, err := s.config.App.Layout()
	if err != nil {
		writeControlError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, newLayoutResponse(keys))
}

// handleSetLayout handles PUT /api/layout with either explicit keys or a
// keyboard size and canvas width.
func (s *Server) handleSetLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutData
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	keys, err := req.Resolve()
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.config.App.SetLayout(keys); err != nil {
		writeControlError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, newLayoutResponse(keys))
}

// handleReset handles POST /api/reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.config.App.Reset(); err != nil {
		writeControlError(w, err)
		return
	}
	s.handleState(w, r)
}

// writeControlError maps pipeline errors to status codes.
func writeControlError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidMode):
		api.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNotRunning):
		api.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		api.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
