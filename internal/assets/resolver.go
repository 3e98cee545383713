// Package assets copies note attachments into the site's image directory.
package assets

import (
	"fmt"

	"github.com/starford/notesync/internal/storage"
)

// Resolver looks attachments up by file name in a flat attachments directory
// and copies them into the destination images directory.
type Resolver struct {
	src storage.Provider // nil when the attachments directory is missing
	dst storage.Provider
}

// NewResolver returns a Resolver. src may be nil, in which case every
// lookup misses.
func NewResolver(src, dst storage.Provider) *Resolver {
	return &Resolver{src: src, dst: dst}
}

// Resolve copies fileName from the attachments directory to the images
// directory, overwriting any file of the same name. It returns false with
// no side effect when the attachment does not exist.
func (r *Resolver) Resolve(fileName string) (bool, error) {
	if r.src == nil || !r.src.Exists(fileName) {
		return false, nil
	}
	data, err := r.src.Read(fileName)
	if err != nil {
		return false, fmt.Errorf("assets: %w", err)
	}
	if err := r.dst.Write(fileName, data); err != nil {
		return false, fmt.Errorf("assets: copy %s: %w", fileName, err)
	}
	return true, nil
}
