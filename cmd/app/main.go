package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config/config.yaml"

func modeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "mode",
		Usage: "Build mode (production, development); defaults to build.mode from config",
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "folio",
		Usage:  "Blog content pipeline: lists, classifies and renders MDX posts",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigPath,
				Value:       defaultConfigPath,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, content watcher and event stream",
				Action: serve,
			},
			{
				Name:   "list",
				Usage:  "List visible posts, newest first",
				Flags:  []cli.Flag{modeFlag()},
				Action: listPosts,
			},
			{
				Name:   "slugs",
				Usage:  "Print visible slugs, newest first",
				Flags:  []cli.Flag{modeFlag()},
				Action: listSlugs,
			},
			{
				Name:      "classify",
				Usage:     "Report whether a post opens with a steps block",
				ArgsUsage: "<slug>",
				Action:    classify,
			},
			{
				Name:      "render",
				Usage:     "Compile one post and print its HTML",
				ArgsUsage: "<slug>",
				Flags:     []cli.Flag{modeFlag()},
				Action:    render,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
