package parser

import (
	"strings"
	"testing"
	"time"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n  - notes\nisPublished: true\n---\n# Hello\nBody text.\n")
	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Header.Len() != 3 {
		t.Fatalf("header fields = %d, want 3", doc.Header.Len())
	}
	if title, _ := doc.Header.String("title"); title != "Hello" {
		t.Errorf("title = %q, want %q", title, "Hello")
	}
	tags, ok := doc.Header.List("tags")
	if !ok || len(tags) != 2 || tags[0] != "go" || tags[1] != "notes" {
		t.Errorf("tags = %v, want [go notes]", tags)
	}
	if !doc.Header.Bool("isPublished") {
		t.Error("isPublished should be true")
	}
	if doc.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", doc.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Header.Len() != 0 {
		t.Errorf("expected empty header, got %d fields", doc.Header.Len())
	}
	if !strings.Contains(doc.Body, "Some text.") {
		t.Errorf("body = %q", doc.Body)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Header.Len() != 0 {
		t.Error("expected empty header on invalid YAML")
	}
	if doc.Body != string(input) {
		t.Errorf("body = %q, want whole input", doc.Body)
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	if _, err := Parse([]byte{0xff, 0xfe, 0xfd}); err == nil {
		t.Error("expected error for invalid UTF-8")
	}
}

func TestHeader_DateShapedTitleStaysString(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: 2025-03-07\ndate: 2025-03-07\n---\nbody\n"))
	if err != nil {
		t.Fatal(err)
	}
	title, ok := doc.Header.String("title")
	if !ok || title != "2025-03-07" {
		t.Errorf("title = %q (ok=%v), want literal 2025-03-07", title, ok)
	}
	d, ok := doc.Header.Date("date")
	if !ok {
		t.Fatal("date should decode")
	}
	want := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("date = %v, want %v", d, want)
	}
}

func TestHeader_DateForms(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-02T03:04:05Z":  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		`"2024-01-02"`:          time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		`"2024-01-02 10:30"`:    time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC),
		`"2024-01-02 10:30:15"`: time.Date(2024, 1, 2, 10, 30, 15, 0, time.UTC),
	}
	for lit, want := range cases {
		doc, err := Parse([]byte("---\ndate: " + lit + "\n---\n"))
		if err != nil {
			t.Fatal(err)
		}
		got, ok := doc.Header.Date("date")
		if !ok || !got.Equal(want) {
			t.Errorf("date %s = %v (ok=%v), want %v", lit, got, ok, want)
		}
	}
}

func TestHeader_InvalidDate(t *testing.T) {
	doc, _ := Parse([]byte("---\ndate: someday\n---\n"))
	if _, ok := doc.Header.Date("date"); ok {
		t.Error("invalid date should report absent")
	}
}

func TestHeader_BoolOnlyForYAMLBooleans(t *testing.T) {
	cases := map[string]bool{
		"isPublished: true":   true,
		"isPublished: false":  false,
		`isPublished: "true"`: false,
		"isPublished: 1":      false,
		"isPublished: yes":    false,
		"isPublished:":        false,
		"other: true":         false,
		"isPublished: [true]": false,
		"isPublished: True":   true,
	}
	for line, want := range cases {
		doc, err := Parse([]byte("---\n" + line + "\n---\nbody\n"))
		if err != nil {
			t.Fatal(err)
		}
		if got := doc.Header.Bool("isPublished"); got != want {
			t.Errorf("%q: Bool = %v, want %v", line, got, want)
		}
	}
}

func TestHeader_BoolOutsideSchema(t *testing.T) {
	doc, err := Parse([]byte("---\npublish: true\nhidden: \"true\"\nlisted: [true]\n---\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Header.Bool("publish") {
		t.Error("publish: true should read as true")
	}
	if doc.Header.Bool("hidden") || doc.Header.Bool("listed") || doc.Header.Bool("absent") {
		t.Error("only a YAML boolean true counts")
	}
}

func TestHeader_ScalarTagsBecomeList(t *testing.T) {
	doc, _ := Parse([]byte("---\ntags: solo\n---\n"))
	tags, ok := doc.Header.List("tags")
	if !ok || len(tags) != 1 || tags[0] != "solo" {
		t.Errorf("tags = %v", tags)
	}
}

func TestHeader_UnknownFieldsPreserved(t *testing.T) {
	doc, _ := Parse([]byte("---\ntitle: A\ncssclass: wide\naliases: [x, y]\n---\n"))
	fields := doc.Header.fields
	if len(fields) != 3 {
		t.Fatalf("len(fields) = %d, want 3", len(fields))
	}
	if fields[1].Name != "cssclass" || fields[1].Value.Kind != KindRaw || fields[1].Value.Node.Value != "wide" {
		t.Errorf("cssclass field = %+v", fields[1])
	}
	if fields[2].Name != "aliases" || len(fields[2].Value.Node.Content) != 2 {
		t.Errorf("aliases field = %+v", fields[2])
	}
}

func TestParse_KeepsBlankLinesAfterHeader(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: A\n---\n\n# H\n"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Body != "\n# H\n" {
		t.Errorf("body = %q, want blank line kept", doc.Body)
	}

	doc, err = Parse([]byte("---\r\ntitle: A\r\n---\r\nbody\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Body != "body\r\n" {
		t.Errorf("CRLF body = %q", doc.Body)
	}
}

func TestSerialize(t *testing.T) {
	type header struct {
		Title string    `yaml:"title"`
		When  time.Time `yaml:"when"`
		Tags  []string  `yaml:"tags,flow"`
		Draft bool      `yaml:"draft"`
	}
	h := header{
		Title: "2025年03月07日",
		When:  time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
		Tags:  []string{"foo"},
	}
	out, err := Serialize("Body\n", h)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := "---\ntitle: 2025年03月07日\nwhen: 2025-03-07T00:00:00Z\ntags: [foo]\ndraft: false\n---\nBody\n"
	if string(out) != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestSerialize_ParseBack(t *testing.T) {
	out, err := Serialize("text", map[string]any{"title": "Round", "draft": false})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if title, _ := doc.Header.String("title"); title != "Round" {
		t.Errorf("title = %q", title)
	}
	if doc.Body != "text\n" {
		t.Errorf("body = %q", doc.Body)
	}
}
