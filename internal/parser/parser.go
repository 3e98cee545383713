// Package parser splits notes into a typed front matter header and a Markdown
// body, and writes documents back out.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

var errNotUTF8 = errors.New("parser: content is not valid UTF-8")

// yamlFormat decodes into a *yaml.Node so scalar tags survive the split.
var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Document is a note split into header and body.
type Document struct {
	Header Header
	Body   string
}

// Parse splits raw note bytes into header and body. A missing, unterminated
// or malformed header yields an empty header and the whole input as body.
func Parse(data []byte) (*Document, error) {
	if !utf8.Valid(data) {
		return nil, errNotUTF8
	}
	mapping, body, ok := splitFrontmatter(data)
	if !ok {
		return &Document{Body: string(data)}, nil
	}
	return &Document{
		Header: NewHeader(mapping),
		Body:   body,
	}, nil
}

// splitFrontmatter returns the header mapping node and the body that follows
// the line ending of the closing delimiter. Further blank lines belong to the
// body. ok is false when no usable header exists.
func splitFrontmatter(data []byte) (*yaml.Node, string, bool) {
	var root yaml.Node
	rest, err := frontmatter.Parse(bytes.NewReader(data), &root, yamlFormat)
	if err != nil {
		return nil, "", false
	}
	if bytes.Equal(rest, data) {
		return nil, "", false
	}
	body := string(rest)

	switch {
	case root.Kind == 0:
		// Empty block between the delimiters.
		return nil, body, true
	case root.Kind == yaml.DocumentNode && len(root.Content) == 1 && root.Content[0].Kind == yaml.MappingNode:
		return root.Content[0], body, true
	default:
		return nil, "", false
	}
}

// Serialize renders header as a YAML front matter block followed by body.
// header is any value yaml.v3 can marshal; struct field order is kept.
func Serialize(body string, header any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(header); err != nil {
		return nil, fmt.Errorf("parser: encode header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("parser: encode header: %w", err)
	}
	buf.WriteString("---\n")
	buf.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
