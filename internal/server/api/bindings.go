package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/plugin"
	"github.com/ayusman/airboard/internal/store"
)

// PluginCatalog resolves plugin names. *plugin.Manager satisfies it.
type PluginCatalog interface {
	Get(name string) (*plugin.Plugin, error)
	List() []*plugin.Plugin
}

// BindingHandler handles HTTP requests for action bindings.
type BindingHandler struct {
	store   *store.Store
	plugins PluginCatalog
}

// NewBindingHandler creates a BindingHandler. plugins may be nil, in which
// case plugin names are not validated.
func NewBindingHandler(s *store.Store, plugins PluginCatalog) *BindingHandler {
	return &BindingHandler{store: s, plugins: plugins}
}

// Register mounts the binding routes on r.
func (h *BindingHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/bindings", h.list).Methods(http.MethodGet)
	r.HandleFunc("/api/bindings", h.create).Methods(http.MethodPost)
	r.HandleFunc("/api/bindings/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/api/bindings/{id}", h.update).Methods(http.MethodPut)
	r.HandleFunc("/api/bindings/{id}", h.delete).Methods(http.MethodDelete)
}

// Request and response types

type createBindingRequest struct {
	Action       string          `json:"action"`
	PluginName   string          `json:"plugin_name"`
	PluginAction string          `json:"plugin_action"`
	Config       json.RawMessage `json:"config"`
	Enabled      *bool           `json:"enabled"`
}

type updateBindingRequest struct {
	Action       string          `json:"action"`
	PluginName   string          `json:"plugin_name"`
	PluginAction string          `json:"plugin_action"`
	Config       json.RawMessage `json:"config"`
	Enabled      *bool           `json:"enabled"`
}

type bindingResponse struct {
	ID           string          `json:"id"`
	Action       string          `json:"action"`
	PluginName   string          `json:"plugin_name"`
	PluginAction string          `json:"plugin_action"`
	Config       json.RawMessage `json:"config"`
	Enabled      bool            `json:"enabled"`
	CreatedAt    string          `json:"created_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

func toBindingResponse(b *store.Binding) bindingResponse {
	config := b.Config
	if config == nil {
		config = json.RawMessage("{}")
	}
	return bindingResponse{
		ID:           b.ID,
		Action:       b.Action,
		PluginName:   b.PluginName,
		PluginAction: b.PluginAction,
		Config:       config,
		Enabled:      b.Enabled,
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
	}
}

// list handles GET /api/bindings.
func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{
		Bindings: make([]bindingResponse, 0, len(bindings)),
	}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toBindingResponse(b))
	}

	WriteJSON(w, http.StatusOK, response)
}

// get handles GET /api/bindings/{id}.
func (h *BindingHandler) get(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.Bindings().GetByID(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Binding not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	WriteJSON(w, http.StatusOK, toBindingResponse(b))
}

// create handles POST /api/bindings. Each action kind has at most one
// binding.
func (h *BindingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBindingRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !gesture.Action(req.Action).Valid() {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", req.Action))
		return
	}
	if req.PluginName == "" {
		WriteError(w, http.StatusBadRequest, "plugin_name is required")
		return
	}
	if req.PluginAction == "" {
		WriteError(w, http.StatusBadRequest, "plugin_action is required")
		return
	}
	if err := h.checkPlugin(req.PluginName, req.PluginAction); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.store.Bindings().GetByAction(req.Action)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to check existing binding")
		return
	}
	if existing != nil {
		WriteError(w, http.StatusConflict, "Action is already bound")
		return
	}

	config := req.Config
	if config == nil {
		config = json.RawMessage("{}")
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	b := &store.Binding{
		ID:           uuid.New().String(),
		Action:       req.Action,
		PluginName:   req.PluginName,
		PluginAction: req.PluginAction,
		Config:       config,
		Enabled:      enabled,
	}
	if err := h.store.Bindings().Create(b); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to create binding")
		return
	}

	WriteJSON(w, http.StatusCreated, toBindingResponse(b))
}

// update handles PUT /api/bindings/{id}. Omitted fields keep their value.
func (h *BindingHandler) update(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.Bindings().GetByID(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Binding not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	var req updateBindingRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Action != "" && req.Action != b.Action {
		if !gesture.Action(req.Action).Valid() {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", req.Action))
			return
		}
		existing, err := h.store.Bindings().GetByAction(req.Action)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to check existing binding")
			return
		}
		if existing != nil {
			WriteError(w, http.StatusConflict, "Action is already bound")
			return
		}
		b.Action = req.Action
	}
	if req.PluginName != "" {
		b.PluginName = req.PluginName
	}
	if req.PluginAction != "" {
		b.PluginAction = req.PluginAction
	}
	if req.Config != nil {
		b.Config = req.Config
	}
	if req.Enabled != nil {
		b.Enabled = *req.Enabled
	}

	if err := h.checkPlugin(b.PluginName, b.PluginAction); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Bindings().Update(b); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to update binding")
		return
	}

	WriteJSON(w, http.StatusOK, toBindingResponse(b))
}

// delete handles DELETE /api/bindings/{id}.
func (h *BindingHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Bindings().Delete(mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Binding not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// checkPlugin verifies that the named plugin exists and declares action.
func (h *BindingHandler) checkPlugin(name, action string) error {
	if h.plugins == nil {
		return nil
	}
	p, err := h.plugins.Get(name)
	if err != nil {
		return err
	}
	if !p.Manifest.Supports(action) {
		return fmt.Errorf("plugin %s does not support %q", name, action)
	}
	return nil
}
