package parser

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Kind is the decoded type of a header value.
type Kind int

const (
	KindRaw Kind = iota
	KindString
	KindDate
	KindList
	KindBool
)

// Schema maps recognized header fields to the kind they are decoded as.
// Fields outside the schema are kept as raw YAML nodes.
var Schema = map[string]Kind{
	"title":       KindString,
	"author":      KindString,
	"description": KindString,
	"slug":        KindString,
	"date":        KindDate,
	"tags":        KindList,
	"featured":    KindBool,
	"isPublished": KindBool,
	"draft":       KindBool,
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	"2006-01-02 15:04",
	time.DateOnly,
}

// Value is one header value. Valid reports whether the node matched the
// kind the schema asks for; an invalid value is treated as absent.
type Value struct {
	Kind  Kind
	Valid bool
	Str   string
	Time  time.Time
	List  []string
	Bool  bool
	Node  *yaml.Node
}

// Field is a named header value.
type Field struct {
	Name  string
	Value Value
}

// Header is the ordered set of fields from a note's front matter.
type Header struct {
	fields []Field
}

// NewHeader builds a header from a YAML mapping node. Nil or non-mapping
// nodes yield an empty header.
func NewHeader(mapping *yaml.Node) Header {
	var h Header
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return h
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		name := mapping.Content[i].Value
		h.fields = append(h.fields, Field{
			Name:  name,
			Value: decodeValue(mapping.Content[i+1], Schema[name]),
		})
	}
	return h
}

// Len returns the number of fields.
func (h Header) Len() int { return len(h.fields) }

// Lookup returns the last field with the given name.
func (h Header) Lookup(name string) (Value, bool) {
	for i := len(h.fields) - 1; i >= 0; i-- {
		if h.fields[i].Name == name {
			return h.fields[i].Value, true
		}
	}
	return Value{}, false
}

// String returns a non-empty string field.
func (h Header) String(name string) (string, bool) {
	v, ok := h.Lookup(name)
	if !ok || !v.Valid || v.Kind != KindString || v.Str == "" {
		return "", false
	}
	return v.Str, true
}

// Date returns a date field.
func (h Header) Date(name string) (time.Time, bool) {
	v, ok := h.Lookup(name)
	if !ok || !v.Valid || v.Kind != KindDate {
		return time.Time{}, false
	}
	return v.Time, true
}

// List returns a list field. A present but empty list reports true.
func (h Header) List(name string) ([]string, bool) {
	v, ok := h.Lookup(name)
	if !ok || !v.Valid || v.Kind != KindList {
		return nil, false
	}
	return append([]string(nil), v.List...), true
}

// Bool reports whether the field holds a YAML boolean true. Fields outside
// the schema are decoded from their raw node, so any field name can act as
// a flag.
func (h Header) Bool(name string) bool {
	v, ok := h.Lookup(name)
	if !ok {
		return false
	}
	if v.Kind == KindBool {
		return v.Valid && v.Bool
	}
	b, ok := decodeBool(v.Node)
	return ok && b
}

func decodeValue(n *yaml.Node, kind Kind) Value {
	v := Value{Kind: kind, Node: n}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch kind {
	case KindRaw:
		v.Valid = true
	case KindString:
		if isScalar(n) {
			v.Str, v.Valid = n.Value, true
		}
	case KindDate:
		if isScalar(n) {
			v.Time, v.Valid = parseDate(n)
		}
	case KindList:
		v.List, v.Valid = decodeList(n)
	case KindBool:
		v.Bool, v.Valid = decodeBool(n)
	}
	return v
}

func decodeBool(n *yaml.Node) (bool, bool) {
	if n == nil {
		return false, false
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if !isScalar(n) || n.ShortTag() != "!!bool" {
		return false, false
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false, false
	}
	return b, true
}

func isScalar(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() != "!!null"
}

func parseDate(n *yaml.Node) (time.Time, bool) {
	var t time.Time
	if err := n.Decode(&t); err == nil && !t.IsZero() {
		return t, true
	}
	s := strings.TrimSpace(n.Value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func decodeList(n *yaml.Node) ([]string, bool) {
	switch {
	case n.Kind == yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if !isScalar(item) {
				continue
			}
			if s := strings.TrimSpace(item.Value); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	case isScalar(n):
		if s := strings.TrimSpace(n.Value); s != "" {
			return []string{s}, true
		}
	}
	return nil, false
}
