package api

import "github.com/starford/folio/internal/models"

// PostListResponse wraps a post listing.
type PostListResponse struct {
	Mode  models.BuildMode `json:"mode" example:"production" validate:"required"`
	Posts []models.Post    `json:"posts" validate:"required"`
}

// SlugListResponse wraps a slug listing.
type SlugListResponse struct {
	Mode  models.BuildMode `json:"mode" example:"production" validate:"required"`
	Slugs []string         `json:"slugs" validate:"required"`
}

// ScrollyResponse reports whether a post uses the steps layout.
type ScrollyResponse struct {
	Slug    string `json:"slug" example:"hello-world" validate:"required"`
	Scrolly bool   `json:"scrolly" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Slug    string `json:"slug" example:"hello-world" validate:"required"`
	Title   string `json:"title" example:"Hello" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
