package notepad

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/airboard/internal/gesture"
	"github.com/ayusman/airboard/internal/keyboard"
	"github.com/ayusman/airboard/internal/store"
)

func typeKey(k string) gesture.Event {
	return gesture.Event{Action: gesture.ActionTypeKey, Key: k}
}

func TestBuffer_Apply(t *testing.T) {
	b := New(nil)

	events := []gesture.Event{
		typeKey("h"),
		typeKey("i"),
		typeKey(keyboard.KeySpace),
		typeKey("x"),
		{Action: gesture.ActionBackspace},
		{Action: gesture.ActionSpace},
		typeKey(keyboard.KeyEnter),
		typeKey("o"),
		typeKey(keyboard.KeyBackspace),
		typeKey("k"),
	}
	for _, ev := range events {
		if _, err := b.Apply(ev); err != nil {
			t.Fatalf("Apply(%+v) error: %v", ev, err)
		}
	}

	if got, want := b.Text(), "hi  \nk"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestBuffer_BackspaceRunes(t *testing.T) {
	b := New(nil)
	b.Set("née")

	b.Apply(gesture.Event{Action: gesture.ActionBackspace})
	if got := b.Text(); got != "né" {
		t.Errorf("Text() = %q, want né", got)
	}
	b.Apply(gesture.Event{Action: gesture.ActionBackspace})
	if got := b.Text(); got != "n" {
		t.Errorf("Text() = %q, want n", got)
	}
}

func TestBuffer_BackspaceOnEmpty(t *testing.T) {
	b := New(nil)
	changed, err := b.Apply(gesture.Event{Action: gesture.ActionBackspace})
	if err != nil || changed {
		t.Errorf("Apply() = %v, %v; want no change", changed, err)
	}
}

func TestBuffer_IgnoresBrowserActions(t *testing.T) {
	b := New(nil)
	for _, a := range []gesture.Action{gesture.ActionScrollUp, gesture.ActionZoomIn, gesture.ActionGoBack} {
		if changed, _ := b.Apply(gesture.Event{Action: a}); changed {
			t.Errorf("%s should not edit the buffer", a)
		}
	}
	if changed, _ := b.Apply(typeKey("")); changed {
		t.Error("empty key should not edit the buffer")
	}
}

func TestBuffer_Persistence(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "notes.db"))
	if err != nil {
		t.Fatalf("store.New() error: %v", err)
	}
	defer s.Close()

	b := New(s.Notes())
	if err := b.Load(); err != nil {
		t.Fatalf("Load() on empty store error: %v", err)
	}
	if err := b.Deliver(context.Background(), typeKey("a")); err != nil {
		t.Fatalf("Deliver() error: %v", err)
	}
	b.Apply(typeKey("b"))

	restored := New(s.Notes())
	if err := restored.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := restored.Text(); got != "ab" {
		t.Errorf("restored Text() = %q, want ab", got)
	}

	if err := restored.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	n, err := s.Notes().Get(NoteID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if n.Content != "" {
		t.Errorf("expected cleared note, got %q", n.Content)
	}
}

type failingStore struct{}

func (failingStore) Get(string) (*store.Note, error) { return nil, errors.New("disk gone") }
func (failingStore) Save(*store.Note) error          { return errors.New("disk gone") }

func TestBuffer_StoreErrors(t *testing.T) {
	b := New(failingStore{})

	if err := b.Load(); err == nil {
		t.Error("expected load error")
	}
	changed, err := b.Apply(typeKey("a"))
	if !changed || err == nil {
		t.Errorf("Apply() = %v, %v; want change with save error", changed, err)
	}
	if b.Text() != "a" {
		t.Error("the edit should stand even when saving fails")
	}
}

func TestBuffer_Snapshot(t *testing.T) {
	if _, err := New(nil).Snapshot(); !errors.Is(err, ErrNoStore) {
		t.Errorf("Snapshot() on in-memory buffer = %v, want ErrNoStore", err)
	}

	s, err := store.New(filepath.Join(t.TempDir(), "notes.db"))
	if err != nil {
		t.Fatalf("store.New() error: %v", err)
	}
	defer s.Close()

	b := New(s.Notes())
	b.Set("shopping\nmilk")

	n, err := b.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if n.ID == "" || n.ID == NoteID {
		t.Errorf("snapshot should get its own id, got %q", n.ID)
	}
	if n.Title != "shopping" || n.Content != "shopping\nmilk" {
		t.Errorf("unexpected snapshot %+v", n)
	}

	notes, err := s.Notes().List()
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 2 {
		t.Errorf("expected current note plus snapshot, got %d", len(notes))
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		text, want string
	}{
		{"", ""},
		{"hello", "hello"},
		{"first\nsecond", "first"},
		{strings.Repeat("é", 50), strings.Repeat("é", TitleLength)},
	}
	for _, tt := range tests {
		if got := Title(tt.text); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
