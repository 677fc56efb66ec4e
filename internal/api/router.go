package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/models"
)

// NewRouter creates a chi router with all API routes mounted.
// db may be nil, in which case /search answers 503.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *content.Service, db *catalog.DB, mode models.BuildMode, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, db, mode)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{slug}", h.GetPost)
	r.Get("/posts/{slug}/scrolly", h.Scrolly)
	r.Get("/slugs", h.ListSlugs)

	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
