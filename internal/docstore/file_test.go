package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynamic.yml")
	if err := os.WriteFile(path, []byte("original\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewFile(path)
	ctx := context.Background()

	got, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if got != "original\n" {
		t.Errorf("Read = %q, want %q", got, "original\n")
	}

	if err := s.Write(ctx, "replaced\n"); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	got, err = s.Read(ctx)
	if err != nil {
		t.Fatalf("Read after write error: %v", err)
	}
	if got != "replaced\n" {
		t.Errorf("Read = %q, want %q", got, "replaced\n")
	}
}

func TestFileStoreMissingIsNotFound(t *testing.T) {
	s := NewFile(filepath.Join(t.TempDir(), "absent.yml"))
	_, err := s.Read(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFileStorePreservesMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynamic.yml")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewFile(path)
	if err := s.Write(context.Background(), "y"); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("Mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestFileStoreWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dynamic.yml")

	s := NewFile(path)
	if err := s.Write(context.Background(), "content\n"); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "dynamic.yml" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Directory contents = %v, want only dynamic.yml", names)
	}
}

func TestFileStoreLocation(t *testing.T) {
	if got := NewFile("/srv/a.yml").Location(); got != "/srv/a.yml" {
		t.Errorf("Location = %q", got)
	}
}
