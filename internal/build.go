package internal

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/transform"
)

// NewLogger returns the JSON logger used by every command.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewContentService wires storage, the transform pipeline and the content
// service from cfg.
func NewContentService(cfg *Config, logger *slog.Logger) (*content.Service, error) {
	store, err := storage.NewFS(cfg.Content.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	stages, err := transform.DefaultStages(cfg.Highlight.Options())
	if err != nil {
		return nil, fmt.Errorf("init stages: %w", err)
	}
	pipeline, err := transform.New(stages, transform.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	return content.NewService(store, pipeline,
		content.WithExtension(cfg.Content.Extension),
		content.WithWorkers(cfg.Content.Workers),
		content.WithJoinPolicy(cfg.Content.JoinPolicy),
		content.WithLogger(logger),
	), nil
}

// OpenCatalog opens the search catalogue, or returns nil when it is disabled.
func OpenCatalog(cfg *Config) (*catalog.DB, error) {
	if !cfg.Catalog.Enabled {
		return nil, nil
	}
	db, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}
	return db, nil
}
