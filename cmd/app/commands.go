package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/starford/folio/internal"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/logfields"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/watch"
	pkgconfig "github.com/starford/folio/pkg/config"
)

// loadConfig reads --config. A missing default file falls back to built-in
// defaults; a missing explicit file is an error.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	path := cmd.String("config")
	cfg := internal.NewDefaultConfig()

	var err error
	if cmd.IsSet("config") {
		err = pkgconfig.Load(path, cfg)
	} else {
		err = pkgconfig.LoadWithDefaults(path, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func buildMode(cmd *cli.Command, cfg *internal.Config) (models.BuildMode, error) {
	if raw := cmd.String("mode"); raw != "" {
		return models.ParseBuildMode(raw)
	}
	return cfg.Build.Mode, nil
}

// commandService builds the content service for one-shot commands. Logs go
// to stderr so stdout stays clean for output.
func commandService(cmd *cli.Command) (*internal.Config, *content.Service, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	svc, err := internal.NewContentService(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, svc, logger, nil
}

func requireSlug(cmd *cli.Command) (string, error) {
	slug := cmd.Args().First()
	if slug == "" {
		return "", errors.New("slug argument is required")
	}
	return slug, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func listPosts(ctx context.Context, cmd *cli.Command) error {
	cfg, svc, _, err := commandService(cmd)
	if err != nil {
		return err
	}
	mode, err := buildMode(cmd, cfg)
	if err != nil {
		return err
	}
	posts, err := svc.ListPosts(ctx, mode)
	if err != nil {
		return err
	}
	return writePosts(os.Stdout, posts, isTerminal(os.Stdout))
}

func listSlugs(ctx context.Context, cmd *cli.Command) error {
	cfg, svc, _, err := commandService(cmd)
	if err != nil {
		return err
	}
	mode, err := buildMode(cmd, cfg)
	if err != nil {
		return err
	}
	slugs, err := svc.ListSlugs(ctx, mode)
	if err != nil {
		return err
	}
	return writeLines(os.Stdout, slugs)
}

func classify(_ context.Context, cmd *cli.Command) error {
	slug, err := requireSlug(cmd)
	if err != nil {
		return err
	}
	_, svc, _, err := commandService(cmd)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, svc.IsScrollyPost(slug))
	return err
}

func render(ctx context.Context, cmd *cli.Command) error {
	slug, err := requireSlug(cmd)
	if err != nil {
		return err
	}
	cfg, svc, _, err := commandService(cmd)
	if err != nil {
		return err
	}
	mode, err := buildMode(cmd, cfg)
	if err != nil {
		return err
	}
	post, err := svc.Render(ctx, slug, mode)
	if err != nil {
		return err
	}
	_, err = io.WriteString(os.Stdout, post.HTML)
	return err
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, svc, logger, err := commandService(cmd)
	if err != nil {
		return err
	}

	db, err := internal.OpenCatalog(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if _, err := watch.Sync(ctx, svc, db, logger); err != nil {
			logger.Warn("initial sync failed", logfields.Error(err))
		}
		go func() {
			if err := watch.Watch(ctx, svc, db, cfg.Content.Dir, cfg.Events.Debounce, logger, nil); err != nil {
				logger.Error("watcher stopped", logfields.Error(err))
			}
		}()
	}

	logger.Info("MCP server starting", logfields.Mode(cfg.Build.Mode.String()))
	return mcpserver.New(svc, db, cfg.Build.Mode).ServeStdio()
}

func writeLines(w io.Writer, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}
