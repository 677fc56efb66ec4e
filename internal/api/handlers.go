package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/logfields"
	"github.com/starford/folio/internal/models"
)

const maxSearchLimit = 100

// Handler holds API route handlers.
type Handler struct {
	svc  *content.Service
	db   *catalog.DB
	mode models.BuildMode
}

// NewHandler creates a new Handler. mode is used when a request carries no
// ?mode= parameter.
func NewHandler(svc *content.Service, db *catalog.DB, mode models.BuildMode) *Handler {
	if mode == "" {
		mode = models.ModeProduction
	}
	return &Handler{svc: svc, db: db, mode: mode}
}

// buildMode resolves ?mode=, falling back to the configured default.
func (h *Handler) buildMode(r *http.Request) (models.BuildMode, error) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		return h.mode, nil
	}
	return models.ParseBuildMode(raw)
}

// writeContentError maps content errors onto HTTP statuses.
func writeContentError(w http.ResponseWriter, op string, err error) {
	slug := apperr.SlugOf(err)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errResponse{Error: "not found", Slug: slug})
	case errors.Is(err, apperr.ErrMalformedFrontmatter), errors.Is(err, apperr.ErrTransformFailure):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{
			Error: err.Error(),
			Kind:  apperr.KindOf(err).Error(),
			Slug:  slug,
		})
	default:
		slog.Error(op+" failed", logfields.Slug(slug), logfields.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List visible posts, newest first
//	@Tags			posts
//	@Produce		json
//	@Param			mode	query		string	false	"Build mode"	Enums(production, development)
//	@Success		200		{object}	PostListResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	mode, err := h.buildMode(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	posts, err := h.svc.ListPosts(r.Context(), mode)
	if err != nil {
		writeContentError(w, "list posts", err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	writeJSON(w, http.StatusOK, PostListResponse{Mode: mode, Posts: posts})
}

// ListSlugs handles GET /api/slugs.
//
//	@Summary		List visible slugs, newest first
//	@Tags			posts
//	@Produce		json
//	@Param			mode	query		string	false	"Build mode"	Enums(production, development)
//	@Success		200		{object}	SlugListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/slugs [get]
func (h *Handler) ListSlugs(w http.ResponseWriter, r *http.Request) {
	mode, err := h.buildMode(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	slugs, err := h.svc.ListSlugs(r.Context(), mode)
	if err != nil {
		writeContentError(w, "list slugs", err)
		return
	}
	if slugs == nil {
		slugs = []string{}
	}
	writeJSON(w, http.StatusOK, SlugListResponse{Mode: mode, Slugs: slugs})
}

// GetPost handles GET /api/posts/{slug}.
//
//	@Summary		Render a single post
//	@Tags			posts
//	@Produce		json
//	@Param			slug	path		string	true	"Post slug"
//	@Param			mode	query		string	false	"Build mode"
//	@Success		200		{object}	models.RenderedPost
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts/{slug} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	mode, err := h.buildMode(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	post, err := h.svc.Render(r.Context(), chi.URLParam(r, "slug"), mode)
	if err != nil {
		writeContentError(w, "render post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Scrolly handles GET /api/posts/{slug}/scrolly.
//
//	@Summary		Report whether a post opens with a steps block
//	@Tags			posts
//	@Produce		json
//	@Param			slug	path		string	true	"Post slug"
//	@Success		200		{object}	ScrollyResponse
//	@Security		BearerAuth
//	@Router			/posts/{slug}/scrolly [get]
func (h *Handler) Scrolly(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	writeJSON(w, http.StatusOK, ScrollyResponse{Slug: slug, Scrolly: h.svc.IsScrollyPost(slug)})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across posts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Param			mode	query		string	false	"Build mode"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("search catalogue disabled"))
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	mode, err := h.buildMode(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > maxSearchLimit {
		limit = 20
	}
	hits, err := h.db.Search(q, limit, mode == models.ModeDevelopment)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), logfields.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult{Slug: hit.Slug, Title: hit.Title, Snippet: hit.Snippet})
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
