// Package storage defines the rooted directory abstraction used for note
// sources, attachments and the site's output directories.
package storage

// Provider is the interface for file operations inside one root directory.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// List returns the names of top-level .md files under the root, sorted.
	List() ([]string, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Exists reports whether path (relative to root) is a regular file.
	Exists(path string) bool
	// Clear removes every entry under the root, keeping the root itself.
	Clear() error
}
