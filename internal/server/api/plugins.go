package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ayusman/airboard/internal/plugin"
)

// PluginHandler lists discovered plugins.
type PluginHandler struct {
	plugins PluginCatalog
}

// NewPluginHandler creates a PluginHandler.
func NewPluginHandler(plugins PluginCatalog) *PluginHandler {
	return &PluginHandler{plugins: plugins}
}

// Register mounts the plugin routes on r.
func (h *PluginHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/plugins", h.list).Methods(http.MethodGet)
}

type listPluginsResponse struct {
	Plugins []plugin.Manifest `json:"plugins"`
}

// list handles GET /api/plugins.
func (h *PluginHandler) list(w http.ResponseWriter, r *http.Request) {
	plugins := h.plugins.List()
	response := listPluginsResponse{Plugins: make([]plugin.Manifest, 0, len(plugins))}
	for _, p := range plugins {
		response.Plugins = append(response.Plugins, p.Manifest)
	}
	WriteJSON(w, http.StatusOK, response)
}
