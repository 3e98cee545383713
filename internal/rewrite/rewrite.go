// Package rewrite converts wiki-style embeds and links in note bodies into
// plain Markdown images and links.
package rewrite

import (
	"regexp"
	"strings"

	"github.com/starford/notesync/internal/models"
	"github.com/starford/notesync/internal/slug"
)

// Default prefixes used by the target site.
const (
	DefaultImagePrefix = "../../assets/images/"
	DefaultLinkPrefix  = "/posts/"
)

// refRe matches ![[file]], ![[file|hint]], [[name]] and [[name|alias]].
// Embeds and links share one pattern so an embed left in place is never
// picked up again as a link.
var refRe = regexp.MustCompile(`(!?)\[\[(.*?)\]\]`)

// AssetResolver makes an attachment available to the site.
type AssetResolver interface {
	Resolve(fileName string) (bool, error)
}

// Rewriter rewrites a note body. note names the owning note in warnings.
type Rewriter interface {
	Rewrite(note, body string) Result
}

// Result is the rewritten body plus what was found along the way.
type Result struct {
	Body string
	// Links holds the target slug of every wiki-link, in order.
	Links    []string
	Warnings []models.Warning
}

// Markup is the regexp-based Rewriter.
type Markup struct {
	assets      AssetResolver
	imagePrefix string
	linkPrefix  string
}

// Option configures a Markup.
type Option func(*Markup)

// WithImagePrefix sets the path prefix of rewritten images.
func WithImagePrefix(prefix string) Option {
	return func(m *Markup) {
		m.imagePrefix = prefix
	}
}

// WithLinkPrefix sets the path prefix of rewritten wiki-links.
func WithLinkPrefix(prefix string) Option {
	return func(m *Markup) {
		m.linkPrefix = prefix
	}
}

// New returns a Markup that resolves embeds through assets.
func New(assets AssetResolver, opts ...Option) *Markup {
	m := &Markup{
		assets:      assets,
		imagePrefix: DefaultImagePrefix,
		linkPrefix:  DefaultLinkPrefix,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Rewrite replaces every embed and wiki-link in body.
func (m *Markup) Rewrite(note, body string) Result {
	var res Result
	res.Body = refRe.ReplaceAllStringFunc(body, func(span string) string {
		sub := refRe.FindStringSubmatch(span)
		inner := sub[2]
		if sub[1] == "!" {
			return m.image(note, span, inner, &res)
		}
		return m.link(inner, &res)
	})
	return res
}

func (m *Markup) image(note, span, inner string, res *Result) string {
	fileName, _, _ := strings.Cut(inner, "|")
	ok, err := m.assets.Resolve(fileName)
	if err != nil {
		res.Warnings = append(res.Warnings, models.Warning{Path: note, Msg: "copy image " + fileName + ": " + err.Error()})
		return span
	}
	if !ok {
		res.Warnings = append(res.Warnings, models.Warning{Path: note, Msg: "missing image: " + fileName})
		return span
	}
	return "![" + fileName + "](" + m.imagePrefix + fileName + ")"
}

func (m *Markup) link(inner string, res *Result) string {
	parts := strings.Split(inner, "|")
	name := parts[0]
	text := name
	if len(parts) > 1 && parts[1] != "" {
		text = parts[1]
	}
	target := slug.Make(name)
	res.Links = append(res.Links, target)
	return "[" + text + "](" + m.linkPrefix + target + ")"
}
