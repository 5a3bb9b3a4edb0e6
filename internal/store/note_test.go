package store

import (
	"errors"
	"testing"
)

func TestNoteRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Notes()

	n := &Note{Title: "scratch", Content: "hello"}
	if err := repo.Save(n); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if n.ID == "" {
		t.Fatal("expected generated id")
	}

	n.Content = "hello world"
	if err := repo.Save(n); err != nil {
		t.Fatalf("Save() overwrite error: %v", err)
	}

	got, err := repo.Get(n.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Content != "hello world" || got.Title != "scratch" {
		t.Errorf("unexpected note %+v", got)
	}

	if err := repo.Save(&Note{ID: "current", Content: "fixed id"}); err != nil {
		t.Fatalf("Save() with explicit id error: %v", err)
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 notes, got %d", len(list))
	}

	if err := repo.Delete(n.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := repo.Get(n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() = %v, want ErrNotFound", err)
	}
}
