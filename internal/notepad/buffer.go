// Package notepad applies typing events to the workspace text buffer.
package notepad

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/keyboard"
	"github.com/ayusman/airboard/internal/store"
)

// NoteID is the note row the buffer persists to.
const NoteID = "current"

// TitleLength caps note titles, in runes.
const TitleLength = 40

// ErrNoStore is returned by operations that need persistence on an
// in-memory buffer.
var ErrNoStore = errors.New("notepad: no note store")

// NoteStore persists buffer content. *store.NoteRepository satisfies it.
type NoteStore interface {
	Get(id string) (*store.Note, error)
	Save(n *store.Note) error
}

// Buffer is the notepad text. It is safe for concurrent use.
type Buffer struct {
	mu    sync.Mutex
	text  []byte
	notes NoteStore
}

// New creates a buffer. notes may be nil for an in-memory buffer.
func New(notes NoteStore) *Buffer {
	return &Buffer{notes: notes}
}

// Load restores the persisted text, if any.
func (b *Buffer) Load() error {
	if b.notes == nil {
		return nil
	}
	n, err := b.notes.Get(NoteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("notepad: load: %w", err)
	}

	b.mu.Lock()
	b.text = []byte(n.Content)
	b.mu.Unlock()
	return nil
}

// Text returns the current content.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.text)
}

// Set replaces the content.
func (b *Buffer) Set(text string) error {
	b.mu.Lock()
	b.text = []byte(text)
	b.mu.Unlock()
	return b.persist(text)
}

// Clear empties the buffer.
func (b *Buffer) Clear() error {
	return b.Set("")
}

// Apply edits the buffer for a typing event and reports whether the text
// changed. Browser events are ignored.
func (b *Buffer) Apply(ev gesture.Event) (bool, error) {
	b.mu.Lock()
	changed := b.applyLocked(ev)
	text := string(b.text)
	b.mu.Unlock()

	if !changed {
		return false, nil
	}
	return true, b.persist(text)
}

// Deliver applies ev; it lets the buffer act as an action sink.
func (b *Buffer) Deliver(_ context.Context, ev gesture.Event) error {
	_, err := b.Apply(ev)
	return err
}

func (b *Buffer) applyLocked(ev gesture.Event) bool {
	switch ev.Action {
	case gesture.ActionBackspace:
		return b.backspace()
	case gesture.ActionSpace:
		b.text = append(b.text, ' ')
		return true
	case gesture.ActionTypeKey:
		switch ev.Key {
		case "":
			return false
		case keyboard.KeyBackspace:
			return b.backspace()
		case keyboard.KeySpace:
			b.text = append(b.text, ' ')
		case keyboard.KeyEnter:
			b.text = append(b.text, '\n')
		default:
			b.text = append(b.text, ev.Key...)
		}
		return true
	}
	return false
}

// backspace removes the last rune.
func (b *Buffer) backspace() bool {
	if len(b.text) == 0 {
		return false
	}
	_, size := utf8.DecodeLastRune(b.text)
	b.text = b.text[:len(b.text)-size]
	return true
}

// Snapshot saves the current text as a new note and returns it.
func (b *Buffer) Snapshot() (*store.Note, error) {
	if b.notes == nil {
		return nil, ErrNoStore
	}
	text := b.Text()
	n := &store.Note{Title: Title(text), Content: text}
	if err := b.notes.Save(n); err != nil {
		return nil, fmt.Errorf("notepad: snapshot: %w", err)
	}
	return n, nil
}

// Title is the first line of text, cut to TitleLength runes.
func Title(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if utf8.RuneCountInString(text) > TitleLength {
		text = string([]rune(text)[:TitleLength])
	}
	return text
}

func (b *Buffer) persist(text string) error {
	if b.notes == nil {
		return nil
	}
	if err := b.notes.Save(&store.Note{ID: NoteID, Title: Title(text), Content: text}); err != nil {
		return fmt.Errorf("notepad: save: %w", err)
	}
	return nil
}
