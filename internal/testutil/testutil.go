// Package testutil provides shared test helpers for setting up note vaults,
// site directories and manifests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/notesync/internal/index"
)

// Layout is a temporary vault plus site checkout.
type Layout struct {
	Root        string
	Notes       string
	Daily       string
	Attachments string
	Posts       string
	Images      string
}

// NewLayout creates the vault directories. The site directories are left
// for the code under test to create.
func NewLayout(t *testing.T) Layout {
	t.Helper()
	root := t.TempDir()
	l := Layout{
		Root:        root,
		Notes:       filepath.Join(root, "vault", "Notes"),
		Daily:       filepath.Join(root, "vault", "Daily"),
		Attachments: filepath.Join(root, "vault", "Assets"),
		Posts:       filepath.Join(root, "site", "src", "data", "blog"),
		Images:      filepath.Join(root, "site", "src", "assets", "images"),
	}
	for _, dir := range []string{l.Notes, l.Daily, l.Attachments} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return l
}

// WriteFile writes content to dir/name, creating dir if needed.
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadFile returns the content of dir/name.
func ReadFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

// TestDB creates a temporary manifest database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notesync-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
