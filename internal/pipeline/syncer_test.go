package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/notesync/internal/apperr"
	"github.com/starford/notesync/internal/index"
	"github.com/starford/notesync/internal/parser"
	"github.com/starford/notesync/internal/testutil"
)

func newSyncer(l testutil.Layout, opts ...Option) *Syncer {
	cfg := Config{
		Sources:           []string{l.Notes, l.Daily},
		Attachments:       l.Attachments,
		PostsDir:          l.Posts,
		ImagesDir:         l.Images,
		Workers:           4,
		DefaultAuthor:     "Mr.X",
		DescriptionLength: 100,
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(cfg, opts...)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRun_PublishedNote(t *testing.T) {
	l := testutil.NewLayout(t)
	testutil.WriteFile(t, l.Notes, "a.md", "---\nisPublished: true\ntags: [foo]\n---\n![[pic.png]] see [[Other Note|here]]\n")
	testutil.WriteFile(t, l.Attachments, "pic.png", "PNGDATA")

	sum, err := newSyncer(l).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 1 || sum.Skipped != 0 || sum.Failed != 0 {
		t.Errorf("summary = %+v", sum)
	}

	out := testutil.ReadFile(t, l.Posts, "a.md")
	for _, want := range []string{
		"draft: false\n",
		"tags: [foo]\n",
		"![pic.png](../../assets/images/pic.png)",
		"[here](/posts/other-note)",
		"pubDatetime: 2025-01-02T03:04:05Z\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got := testutil.ReadFile(t, l.Images, "pic.png"); got != "PNGDATA" {
		t.Errorf("copied image = %q", got)
	}

	doc, err := parser.Parse([]byte(out))
	if err != nil {
		t.Fatal(err)
	}
	if title, _ := doc.Header.String("title"); title != "a" {
		t.Errorf("title = %q", title)
	}
	if s, _ := doc.Header.String("slug"); s != "a" {
		t.Errorf("slug = %q", s)
	}
	if a, _ := doc.Header.String("author"); a != "Mr.X" {
		t.Errorf("author = %q", a)
	}
}

func TestRun_UnpublishedSkipped(t *testing.T) {
	l := testutil.NewLayout(t)
	testutil.WriteFile(t, l.Notes, "b.md", "---\ntitle: B\n---\nprivate\n")

	sum, err := newSyncer(l).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Skipped != 1 || sum.Processed != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if exists(filepath.Join(l.Posts, "b.md")) {
		t.Error("b.md must not be published")
	}
}

func TestRun_MissingImageKeepsSpan(t *testing.T) {
	l := testutil.NewLayout(t)
	testutil.WriteFile(t, l.Notes, "a.md", "---\nisPublished: true\n---\nlook ![[gone.png|200]] here\n")

	sum, err := newSyncer(l).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := testutil.ReadFile(t, l.Posts, "a.md")
	if !strings.Contains(out, "look ![[gone.png|200]] here") {
		t.Errorf("span should be untouched:\n%s", out)
	}
	found := false
	for _, w := range sum.Warnings {
		if w.Path == "a.md" && strings.Contains(w.Msg, "gone.png") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing image warning not recorded: %v", sum.Warnings)
	}
	if exists(filepath.Join(l.Images, "gone.png")) {
		t.Error("missing image must not be created")
	}
}

func TestRun_MissingSourceDirIsWarning(t *testing.T) {
	l := testutil.NewLayout(t)
	missing := filepath.Join(l.Root, "vault", "Nope")
	testutil.WriteFile(t, l.Daily, "d.md", "---\nisPublished: true\n---\nday\n")

	cfg := newSyncer(l).cfg
	cfg.Sources = []string{missing, l.Daily}
	sum, err := New(cfg, WithClock(func() time.Time { return fixedNow })).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 1 {
		t.Errorf("processed = %d, want 1", sum.Processed)
	}
	if len(sum.Warnings) != 1 || sum.Warnings[0].Path != missing {
		t.Errorf("warnings = %v", sum.Warnings)
	}
}

func TestRun_PerFileFailureDoesNotAbort(t *testing.T) {
	l := testutil.NewLayout(t)
	testutil.WriteFile(t, l.Notes, "bad.md", string([]byte{0xff, 0xfe, 0xfd}))
	testutil.WriteFile(t, l.Notes, "good.md", "---\nisPublished: true\n---\nok\n")

	sum, err := newSyncer(l).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 || sum.Processed != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if !exists(filepath.Join(l.Posts, "good.md")) {
		t.Error("good.md should be written")
	}
}

func TestRun_IdempotentRebuild(t *testing.T) {
	l := testutil.NewLayout(t)
	testutil.WriteFile(t, l.Notes, "a.md", "---\nisPublished: true\ntitle: A\ndate: 2024-02-03\n---\n![[pic.png]] [[B]]\n")
	testutil.WriteFile(t, l.Daily, "2025-03-07.md", "---\nisPublished: true\n---\ndiary\n")
	testutil.WriteFile(t, l.Attachments, "pic.png", "x")

	s := newSyncer(l)
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := map[string]string{
		"a.md":          testutil.ReadFile(t, l.Posts, "a.md"),
		"2025-03-07.md": testutil.ReadFile(t, l.Posts, "2025-03-07.md"),
	}
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	for name, want := range first {
		if got := testutil.ReadFile(t, l.Posts, name); got != want {
			t.Errorf("%s changed between runs:\n%s\n---\n%s", name, want, got)
		}
	}
	if !strings.Contains(first["2025-03-07.md"], "title: 2025年03月07日\n") {
		t.Errorf("diary title not coerced:\n%s", first["2025-03-07.md"])
	}
}

func TestRun_ClearsPostsButNotImages(t *testing.T) {
	l := testutil.NewLayout(t)
	testutil.WriteFile(t, l.Posts, "stale.md", "old")
	testutil.WriteFile(t, l.Images, "keep.png", "img")

	if _, err := newSyncer(l).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if exists(filepath.Join(l.Posts, "stale.md")) {
		t.Error("stale post should be removed")
	}
	if !exists(filepath.Join(l.Images, "keep.png")) {
		t.Error("images directory must not be emptied")
	}
}

func TestRun_LaterSourceWinsOnSameName(t *testing.T) {
	l := testutil.NewLayout(t)
	testutil.WriteFile(t, l.Notes, "same.md", "---\nisPublished: true\ntitle: First\n---\n")
	testutil.WriteFile(t, l.Daily, "same.md", "---\nisPublished: true\ntitle: Second\n---\n")

	sum, err := newSyncer(l).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 2 {
		t.Errorf("processed = %d", sum.Processed)
	}
	if out := testutil.ReadFile(t, l.Posts, "same.md"); !strings.Contains(out, "title: Second") {
		t.Errorf("later source should win:\n%s", out)
	}
}

func TestRun_NestedNotesIgnored(t *testing.T) {
	l := testutil.NewLayout(t)
	testutil.WriteFile(t, filepath.Join(l.Notes, "sub"), "deep.md", "---\nisPublished: true\n---\n")

	sum, err := newSyncer(l).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 0 || sum.Skipped != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRun_SetupFailure(t *testing.T) {
	l := testutil.NewLayout(t)
	blocker := filepath.Join(l.Root, "site")
	testutil.WriteFile(t, l.Root, "site", "not a dir")

	_, err := newSyncer(l).Run(context.Background())
	if !errors.Is(err, apperr.ErrSetup) {
		t.Errorf("err = %v, want ErrSetup (blocker %s)", err, blocker)
	}
}

func TestRun_Cancelled(t *testing.T) {
	l := testutil.NewLayout(t)
	testutil.WriteFile(t, l.Notes, "a.md", "---\nisPublished: true\n---\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newSyncer(l).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRun_RecordsManifest(t *testing.T) {
	l := testutil.NewLayout(t)
	db := testutil.TestDB(t)
	testutil.WriteFile(t, l.Notes, "a.md", "---\nisPublished: true\ntitle: Alpha\n---\n[[Beta]] [[Nowhere]]\n")
	testutil.WriteFile(t, l.Notes, "b.md", "---\nisPublished: true\ntitle: Beta\n---\nback to [[Alpha]]\n")

	if _, err := newSyncer(l, WithRecorder(db)).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	posts, err := db.ListPosts()
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 {
		t.Fatalf("posts = %+v", posts)
	}
	p, err := db.GetPost("a.md")
	if err != nil {
		t.Fatal(err)
	}
	if p.Slug != "alpha" || p.Checksum == "" || p.Source != l.Notes {
		t.Errorf("post = %+v", p)
	}
	dangling, err := db.DanglingLinks()
	if err != nil {
		t.Fatal(err)
	}
	if len(dangling) != 1 || dangling[0].Target != "nowhere" {
		t.Errorf("dangling = %+v", dangling)
	}
}

func TestRun_CustomPublishField(t *testing.T) {
	l := testutil.NewLayout(t)
	testutil.WriteFile(t, l.Notes, "a.md", "---\npublish: true\n---\nyes\n")
	testutil.WriteFile(t, l.Notes, "b.md", "---\nisPublished: true\n---\nno\n")

	cfg := newSyncer(l).cfg
	cfg.PublishField = "publish"
	sum, err := New(cfg, WithClock(func() time.Time { return fixedNow })).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 1 || sum.Skipped != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if !exists(filepath.Join(l.Posts, "a.md")) {
		t.Error("a.md should be published through the custom field")
	}
	if exists(filepath.Join(l.Posts, "b.md")) {
		t.Error("b.md must not be published")
	}
}

type lockedRecorder struct {
	recorded int
}

func (r *lockedRecorder) Reset() error { return errors.New("database is locked") }

func (r *lockedRecorder) RecordPost(index.PostRow, []string) error {
	r.recorded++
	return nil
}

func TestRun_ManifestResetFailureKeepsPosts(t *testing.T) {
	l := testutil.NewLayout(t)
	testutil.WriteFile(t, l.Posts, "old.md", "stale")
	testutil.WriteFile(t, l.Notes, "a.md", "---\nisPublished: true\n---\nhi\n")
	rec := &lockedRecorder{}

	sum, err := newSyncer(l, WithRecorder(rec)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 1 || !exists(filepath.Join(l.Posts, "a.md")) {
		t.Errorf("posts should still be written: %+v", sum)
	}
	if exists(filepath.Join(l.Posts, "old.md")) {
		t.Error("stale post should be removed")
	}
	if rec.recorded != 0 {
		t.Errorf("recorded = %d after failed reset, want 0", rec.recorded)
	}
	found := false
	for _, w := range sum.Warnings {
		if strings.Contains(w.Msg, "database is locked") {
			found = true
		}
	}
	if !found {
		t.Errorf("reset failure not reported: %v", sum.Warnings)
	}
}
