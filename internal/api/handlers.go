package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notesync/internal/apperr"
	"github.com/starford/notesync/internal/index"
	"github.com/starford/notesync/internal/models"
)

// Runner runs sync passes and remembers the outcome of the last one.
type Runner interface {
	Sync(ctx context.Context) (models.Summary, error)
	Last() (models.Summary, bool)
}

// Handler holds API route handlers.
type Handler struct {
	runner   Runner
	manifest index.Manifest
}

// NewHandler creates a new Handler.
func NewHandler(runner Runner, manifest index.Manifest) *Handler {
	return &Handler{runner: runner, manifest: manifest}
}

func (h *Handler) requireManifest(w http.ResponseWriter) bool {
	if h.manifest == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("manifest disabled"))
		return false
	}
	return true
}

// ListPosts handles GET /api/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, _ *http.Request) {
	if !h.requireManifest(w) {
		return
	}
	posts, err := h.manifest.ListPosts()
	if err != nil {
		slog.Error("api: list posts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if posts == nil {
		posts = []index.PostRow{}
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts, Total: len(posts)})
}

// GetPost handles GET /api/posts/{file}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	if !h.requireManifest(w) {
		return
	}
	file := chi.URLParam(r, "file")
	if decoded, err := url.PathUnescape(file); err == nil {
		file = decoded
	}
	p, err := h.manifest.GetPost(file)
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("post not found"))
		return
	}
	if err != nil {
		slog.Error("api: get post failed", slog.String("file", file), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Summary handles GET /api/summary.
func (h *Handler) Summary(w http.ResponseWriter, _ *http.Request) {
	resp := SummaryResponse{
		DanglingLinks:  []index.DanglingLink{},
		SlugCollisions: []index.Collision{},
	}
	if last, ok := h.runner.Last(); ok {
		resp.LastRun = &last
	}
	if h.manifest != nil {
		rep, err := index.BuildReport(h.manifest)
		if err != nil {
			slog.Error("api: build report failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		resp.Posts = len(rep.Posts)
		resp.DanglingLinks = rep.Dangling
		resp.SlugCollisions = rep.Collisions
	}
	writeJSON(w, http.StatusOK, resp)
}

// Sync handles POST /api/sync. The run is not tied to the request, so a
// client that disconnects does not leave a half-built posts directory.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	sum, err := h.runner.Sync(context.WithoutCancel(r.Context()))
	if err != nil {
		slog.Error("api: sync failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
