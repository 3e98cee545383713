package pipeline

import (
	"regexp"
	"strings"
	"time"

	"github.com/starford/notesync/internal/checksum"
	"github.com/starford/notesync/internal/models"
	"github.com/starford/notesync/internal/parser"
	"github.com/starford/notesync/internal/slug"
	"github.com/starford/notesync/internal/storage"
)

var dateTitleRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// NormalizeOptions carries the fallbacks used when a header field is absent.
type NormalizeOptions struct {
	DefaultAuthor     string
	DescriptionLength int
	Now               time.Time
}

// Normalize builds the output header of a published note from its source
// header, its file name and its rewritten body.
func Normalize(h parser.Header, fileName, body string, opts NormalizeOptions) models.PostHeader {
	out := models.PostHeader{
		Title:       normalizeTitle(h, fileName),
		Author:      opts.DefaultAuthor,
		PubDatetime: opts.Now.UTC(),
		Tags:        []string{},
		Featured:    h.Bool("featured"),
		Draft:       false,
	}
	if author, ok := h.String("author"); ok {
		out.Author = author
	}
	if d, ok := h.Date("date"); ok {
		out.PubDatetime = d.UTC()
	}
	if desc, ok := h.String("description"); ok {
		out.Description = desc
	} else {
		out.Description = Excerpt(body, opts.DescriptionLength)
	}
	if tags, ok := h.List("tags"); ok {
		out.Tags = tags
	}
	if s, ok := h.String("slug"); ok {
		out.Slug = s
	} else {
		out.Slug = fallbackSlug(out.Title, fileName)
	}
	return out
}

func normalizeTitle(h parser.Header, fileName string) string {
	title, ok := h.String("title")
	if !ok {
		title = strings.TrimSuffix(fileName, storage.NoteExt)
	}
	if title == "" {
		title = fileName
	}
	if m := dateTitleRe.FindStringSubmatch(title); m != nil {
		return m[1] + "年" + m[2] + "月" + m[3] + "日"
	}
	return title
}

// fallbackSlug derives a slug from the title, then the file name, and as a
// last resort from a digest of the file name so the slug is never empty.
func fallbackSlug(title, fileName string) string {
	if s := slug.Make(title); s != "" {
		return s
	}
	if s := slug.Make(strings.TrimSuffix(fileName, storage.NoteExt)); s != "" {
		return s
	}
	return "post-" + checksum.Sum([]byte(fileName))[:12]
}

// Excerpt returns the first n runes of body with Markdown control characters
// (# * ` [ ]) removed, followed by an ellipsis.
func Excerpt(body string, n int) string {
	r := []rune(body)
	if len(r) > n {
		r = r[:n]
	}
	s := strings.Map(func(c rune) rune {
		switch c {
		case '#', '*', '`', '[', ']':
			return -1
		}
		return c
	}, string(r))
	return s + "..."
}
