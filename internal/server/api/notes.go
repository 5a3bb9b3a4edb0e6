package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ayusman/airboard/internal/notepad"
	"github.com/ayusman/airboard/internal/store"
)

// NotesHandler exposes the live notepad and its saved snapshots.
type NotesHandler struct {
	buffer *notepad.Buffer
	store  *store.Store
}

// NewNotesHandler creates a NotesHandler. s may be nil, which disables the
// snapshot routes.
func NewNotesHandler(b *notepad.Buffer, s *store.Store) *NotesHandler {
	return &NotesHandler{buffer: b, store: s}
}

// Register mounts the notes routes on r.
func (h *NotesHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/notes", h.get).Methods(http.MethodGet)
	r.HandleFunc("/api/notes", h.put).Methods(http.MethodPut)
	r.HandleFunc("/api/notes", h.clear).Methods(http.MethodDelete)

	if h.store != nil {
		r.HandleFunc("/api/notes/saved", h.listSaved).Methods(http.MethodGet)
		r.HandleFunc("/api/notes/saved", h.save).Methods(http.MethodPost)
		r.HandleFunc("/api/notes/saved/{id}", h.getSaved).Methods(http.MethodGet)
		r.HandleFunc("/api/notes/saved/{id}", h.deleteSaved).Methods(http.MethodDelete)
	}
}

type noteContent struct {
	Content string `json:"content"`
}

type noteResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type listNotesResponse struct {
	Notes []noteResponse `json:"notes"`
}

func toNoteResponse(n *store.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
		UpdatedAt: n.UpdatedAt.Format(time.RFC3339),
	}
}

// get handles GET /api/notes.
func (h *NotesHandler) get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, noteContent{Content: h.buffer.Text()})
}

// put handles PUT /api/notes and replaces the notepad text.
func (h *NotesHandler) put(w http.ResponseWriter, r *http.Request) {
	var req noteContent
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.buffer.Set(req.Content); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to save note")
		return
	}
	WriteJSON(w, http.StatusOK, noteContent{Content: h.buffer.Text()})
}

// clear handles DELETE /api/notes.
func (h *NotesHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.buffer.Clear(); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to clear note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listSaved handles GET /api/notes/saved, newest first. The live note is
// not included.
func (h *NotesHandler) listSaved(w http.ResponseWriter, r *http.Request) {
	notes, err := h.store.Notes().List()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list notes")
		return
	}

	response := listNotesResponse{Notes: make([]noteResponse, 0, len(notes))}
	for _, n := range notes {
		if n.ID == notepad.NoteID {
			continue
		}
		response.Notes = append(response.Notes, toNoteResponse(n))
	}
	WriteJSON(w, http.StatusOK, response)
}

// save handles POST /api/notes/saved and snapshots the live text.
func (h *NotesHandler) save(w http.ResponseWriter, r *http.Request) {
	n, err := h.buffer.Snapshot()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to save note")
		return
	}
	WriteJSON(w, http.StatusCreated, toNoteResponse(n))
}

// getSaved handles GET /api/notes/saved/{id}.
func (h *NotesHandler) getSaved(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Notes().Get(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Note not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to get note")
		return
	}
	WriteJSON(w, http.StatusOK, toNoteResponse(n))
}

// deleteSaved handles DELETE /api/notes/saved/{id}.
func (h *NotesHandler) deleteSaved(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == notepad.NoteID {
		WriteError(w, http.StatusBadRequest, "Use DELETE /api/notes to clear the live note")
		return
	}
	if err := h.store.Notes().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Note not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to delete note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
