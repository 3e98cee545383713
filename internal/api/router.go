package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/notesync/internal/index"
)

// NewRouter creates a chi router with all status routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// manifest may be nil when the manifest is disabled; the post routes then
// answer 503.
func NewRouter(runner Runner, manifest index.Manifest, authEnabled bool, token string) chi.Router {
	h := NewHandler(runner, manifest)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{file}", h.GetPost)
	r.Get("/summary", h.Summary)
	r.Post("/sync", h.Sync)

	return r
}
