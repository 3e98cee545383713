// Package pipeline runs the note-to-site synchronization: it scans source
// directories, keeps published notes, rewrites their bodies and headers and
// writes them into the site's content directories.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/notesync/internal/apperr"
	"github.com/starford/notesync/internal/assets"
	"github.com/starford/notesync/internal/checksum"
	"github.com/starford/notesync/internal/index"
	"github.com/starford/notesync/internal/models"
	"github.com/starford/notesync/internal/parser"
	"github.com/starford/notesync/internal/rewrite"
	"github.com/starford/notesync/internal/storage"
)

// Config is the read-only input of a run. All paths should be absolute or
// relative to the working directory.
type Config struct {
	Sources           []string
	Attachments       string
	PostsDir          string
	ImagesDir         string
	Workers           int
	PublishField      string
	DefaultAuthor     string
	ImagePrefix       string
	LinkPrefix        string
	DescriptionLength int
}

// Recorder receives every written post. *index.DB implements it.
type Recorder interface {
	Reset() error
	RecordPost(p index.PostRow, links []string) error
}

// Syncer runs the pipeline. It holds no state between runs.
type Syncer struct {
	cfg      Config
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger used for progress and warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) {
		s.logger = l
	}
}

// WithRecorder makes the run record every written post.
func WithRecorder(r Recorder) Option {
	return func(s *Syncer) {
		s.recorder = r
	}
}

// WithClock overrides the clock used for missing dates.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		s.now = now
	}
}

// New returns a Syncer for cfg with defaults filled in.
func New(cfg Config, opts ...Option) *Syncer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.PublishField == "" {
		cfg.PublishField = DefaultPublishField
	}
	if cfg.ImagePrefix == "" {
		cfg.ImagePrefix = rewrite.DefaultImagePrefix
	}
	if cfg.LinkPrefix == "" {
		cfg.LinkPrefix = rewrite.DefaultLinkPrefix
	}
	if cfg.DescriptionLength < 1 {
		cfg.DescriptionLength = 100
	}
	s := &Syncer{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run is the mutable state of one Run call.
type run struct {
	posts     storage.Provider
	recorder  Recorder // nil when the manifest is off for this run
	rewriter  rewrite.Rewriter
	normalize NormalizeOptions

	processed atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64

	mu       sync.Mutex
	warnings []models.Warning
}

// Run executes one full rebuild. Only destination directory setup failures
// and context cancellation are returned as errors; everything else is
// reported in the summary.
func (s *Syncer) Run(ctx context.Context) (models.Summary, error) {
	start := s.now()
	summary := models.Summary{PostsDir: s.cfg.PostsDir, StartedAt: start}

	posts, err := storage.EnsureFS(s.cfg.PostsDir)
	if err != nil {
		return summary, fmt.Errorf("%w: posts dir: %w", apperr.ErrSetup, err)
	}
	images, err := storage.EnsureFS(s.cfg.ImagesDir)
	if err != nil {
		return summary, fmt.Errorf("%w: images dir: %w", apperr.ErrSetup, err)
	}
	summary.PostsDir = posts.Root()
	if err := posts.Clear(); err != nil {
		return summary, fmt.Errorf("%w: clear posts dir: %w", apperr.ErrSetup, err)
	}

	st := &run{
		posts:    posts,
		recorder: s.recorder,
		normalize: NormalizeOptions{
			DefaultAuthor:     s.cfg.DefaultAuthor,
			DescriptionLength: s.cfg.DescriptionLength,
			Now:               start,
		},
	}
	// A failed reset turns the manifest off for this run only.
	if st.recorder != nil {
		if err := st.recorder.Reset(); err != nil {
			st.warn(s.logger, models.Warning{Msg: "manifest disabled for this run: reset failed: " + err.Error()})
			st.recorder = nil
		}
	}

	var attachments storage.Provider
	if fs, err := storage.NewFS(s.cfg.Attachments); err != nil {
		st.warn(s.logger, models.Warning{Path: s.cfg.Attachments, Msg: "attachments directory unavailable: " + err.Error()})
	} else {
		attachments = fs
	}
	st.rewriter = rewrite.New(
		assets.NewResolver(attachments, images),
		rewrite.WithImagePrefix(s.cfg.ImagePrefix),
		rewrite.WithLinkPrefix(s.cfg.LinkPrefix),
	)

	s.logger.Info("sync: started",
		slog.Any("sources", s.cfg.Sources),
		slog.String("posts_dir", posts.Root()),
		slog.String("images_dir", images.Root()))

	var runErr error
	for _, dir := range s.cfg.Sources {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := s.syncDir(ctx, st, dir); err != nil {
			runErr = err
			break
		}
	}

	summary.Processed = int(st.processed.Load())
	summary.Skipped = int(st.skipped.Load())
	summary.Failed = int(st.failed.Load())
	summary.Warnings = st.warnings
	summary.Duration = s.now().Sub(start)

	s.logger.Info("sync: finished",
		slog.Int("processed", summary.Processed),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Int("warnings", len(summary.Warnings)))

	return summary, runErr
}

// syncDir processes the top-level notes of one source directory. A missing
// or unreadable directory is a warning. Only cancellation is returned.
func (s *Syncer) syncDir(ctx context.Context, st *run, dir string) error {
	src, err := storage.NewFS(dir)
	if err != nil {
		st.warn(s.logger, models.Warning{Path: dir, Msg: "source directory skipped: " + err.Error()})
		return nil
	}
	names, err := src.List()
	if err != nil {
		st.warn(s.logger, models.Warning{Path: dir, Msg: "source directory skipped: " + err.Error()})
		return nil
	}
	s.logger.Info("sync: scanning", slog.String("dir", src.Root()), slog.Int("notes", len(names)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.syncFile(st, src, name)
			return nil
		})
	}
	return g.Wait()
}

// syncFile runs one note through filter, rewrite, normalization and write.
// Failures are recorded on st and never stop the run.
func (s *Syncer) syncFile(st *run, src storage.Provider, name string) {
	path := filepath.Join(src.Root(), name)

	data, err := src.Read(name)
	if err != nil {
		st.fail(s.logger, path, "read failed", err)
		return
	}
	doc, err := parser.Parse(data)
	if err != nil {
		st.fail(s.logger, path, "parse failed", err)
		return
	}
	if !IsPublished(doc.Header, s.cfg.PublishField) {
		st.skipped.Add(1)
		s.logger.Debug("sync: skipped", slog.String("path", path))
		return
	}

	res := st.rewriter.Rewrite(name, doc.Body)
	st.warn(s.logger, res.Warnings...)

	post := models.Post{
		File:   name,
		Source: src.Root(),
		Header: Normalize(doc.Header, name, res.Body, st.normalize),
		Body:   res.Body,
		Links:  res.Links,
	}
	out, err := parser.Serialize(post.Body, post.Header)
	if err != nil {
		st.fail(s.logger, path, "serialize failed", err)
		return
	}
	if err := st.posts.Write(post.File, out); err != nil {
		st.fail(s.logger, path, "write failed", err)
		return
	}
	st.processed.Add(1)
	s.logger.Debug("sync: published", slog.String("path", path), slog.String("slug", post.Header.Slug))

	if st.recorder != nil {
		if err := st.recorder.RecordPost(postRow(post, out), post.Links); err != nil {
			st.warn(s.logger, models.Warning{Path: path, Msg: "manifest record failed: " + err.Error()})
		}
	}
}

func postRow(p models.Post, written []byte) index.PostRow {
	return index.PostRow{
		File:        p.File,
		Source:      p.Source,
		Title:       p.Header.Title,
		Slug:        p.Header.Slug,
		Checksum:    checksum.Sum(written),
		Tags:        p.Header.Tags,
		PubDatetime: p.Header.PubDatetime,
	}
}

func (st *run) warn(logger *slog.Logger, ws ...models.Warning) {
	if len(ws) == 0 {
		return
	}
	st.mu.Lock()
	st.warnings = append(st.warnings, ws...)
	st.mu.Unlock()
	for _, w := range ws {
		logger.Warn("sync: "+w.Msg, slog.String("path", w.Path))
	}
}

func (st *run) fail(logger *slog.Logger, path, msg string, err error) {
	st.failed.Add(1)
	st.warn(logger, models.Warning{Path: path, Msg: msg + ": " + err.Error()})
}
