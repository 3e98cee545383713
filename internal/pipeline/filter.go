package pipeline

import "github.com/starford/notesync/internal/parser"

// DefaultPublishField is the header flag that admits a note.
const DefaultPublishField = "isPublished"

// IsPublished reports whether the note carries field set to YAML true.
// A missing field, false, a quoted "true" or any non-boolean value keeps the
// note out of the output.
func IsPublished(h parser.Header, field string) bool {
	return h.Bool(field)
}
