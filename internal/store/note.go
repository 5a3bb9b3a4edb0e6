package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Note is a saved notepad document.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteRepository provides CRUD operations for notes.
type NoteRepository struct {
	db *sql.DB
}

// Notes returns the note repository for this store.
func (s *Store) Notes() *NoteRepository {
	return &NoteRepository{db: s.db}
}

// Save inserts n or overwrites the note with the same ID. An empty ID is
// filled with a fresh UUID.
func (r *NoteRepository) Save(n *Note) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO notes (id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, content = excluded.content,
		 updated_at = excluded.updated_at`,
		n.ID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt,
	)
	return err
}

// Get retrieves a note by its ID.
func (r *NoteRepository) Get(id string) (*Note, error) {
	n := &Note{}
	err := r.db.QueryRow(
		`SELECT id, title, content, created_at, updated_at FROM notes WHERE id = ?`, id,
	).Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

// List returns all notes, most recently updated first.
func (r *NoteRepository) List() ([]*Note, error) {
	rows, err := r.db.Query(
		`SELECT id, title, content, created_at, updated_at FROM notes ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		n := &Note{}
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}

	return notes, rows.Err()
}

// Delete removes a note by its ID.
func (r *NoteRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}
