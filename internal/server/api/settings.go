package api

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gorilla/mux"

	"github.com/ayusman/airboard/internal/config"
	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/store"
)

// Tuner reads and replaces the live pipeline tuning. *app.App satisfies it.
type Tuner interface {
	Tuning() (gesture.Config, error)
	SetTuning(cfg gesture.Config) error
}

// SettingsHandler exposes the tuning settings. Updates are persisted to the
// settings table and applied to the running pipeline.
type SettingsHandler struct {
	store *store.Store
	tuner Tuner
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(s *store.Store, tuner Tuner) *SettingsHandler {
	return &SettingsHandler{store: s, tuner: tuner}
}

// Register mounts the settings routes on r.
func (h *SettingsHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/settings", h.get).Methods(http.MethodGet)
	r.HandleFunc("/api/settings", h.update).Methods(http.MethodPut)
}

type settingsBody struct {
	Settings map[string]string `json:"settings"`
}

// get handles GET /api/settings and returns the effective tuning.
func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	tuning, err := h.tuner.Tuning()
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, settingsBody{Settings: config.TuningSettings(tuning)})
}

// update handles PUT /api/settings. Only tuning keys are accepted; values
// are validated before anything is stored.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req settingsBody
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Settings) == 0 {
		WriteError(w, http.StatusBadRequest, "settings is required")
		return
	}

	known := config.TuningKeys()
	for key := range req.Settings {
		if !slices.Contains(known, key) {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown setting %q", key))
			return
		}
	}

	current, err := h.tuner.Tuning()
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	next, err := config.ApplySettings(current, req.Settings)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	values := config.TuningSettings(next)
	if err := h.store.Settings().SetMany(values); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	if err := h.tuner.SetTuning(next); err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, settingsBody{Settings: values})
}
