package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if _, err := s.Get(ctx, "prompt-a"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get before Set: err = %v, want ErrMiss", err)
	}

	if err := s.Set(ctx, "prompt-a", `{"sheet_type":"single"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "prompt-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != `{"sheet_type":"single"}` {
		t.Errorf("Get = %q", got)
	}

	// Different prompts do not collide.
	if _, err := s.Get(ctx, "prompt-b"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get other prompt: err = %v, want ErrMiss", err)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if err := s.Set(ctx, "p", "first"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "p", "second"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "p")
	if err != nil || got != "second" {
		t.Errorf("Get = %q, %v; want second", got, err)
	}
}

func TestFileStoreCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	path := filepath.Join(dir, Key("p")+".json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.Get(ctx, "p"); !errors.Is(err, ErrMiss) {
		t.Errorf("corrupt entry: err = %v, want ErrMiss", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "p"); !errors.Is(err, ErrMiss) {
		t.Fatalf("empty store: err = %v, want ErrMiss", err)
	}
	if err := s.Set(ctx, "p", "r"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := s.Get(ctx, "p"); err != nil || got != "r" {
		t.Errorf("Get = %q, %v", got, err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}
