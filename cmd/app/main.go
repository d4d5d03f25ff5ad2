package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vos/internal"
	pkgconfig "github.com/starford/vos/pkg/config"
)

var version = "dev"

// loadConfig reads the --config file over the defaults. A missing file
// keeps the defaults.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Debug("config file not found, using defaults", slog.String("path", configPath))
	}
	if root := cmd.String("root"); root != "" {
		cfg.Site.Root = root
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}
	return cfg, nil
}

func runWith(fn func(context.Context, ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithVersion(version),
			internal.WithStrict(cmd.Bool("strict")),
		}
		if err := fn(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "vos",
		Usage:   "Static portfolio generator with a two-pass markup parser and productivity log",
		Version: version,
		Action:  runWith(internal.Build),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Site source root, overrides site.root",
				Sources: cli.EnvVars("VOS_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build every page once",
				Action: runWith(internal.Build),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Exit non-zero when any artifact is excluded from the build",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Build, serve the output with live reload and rebuild on change",
				Action: runWith(internal.Serve),
			},
			{
				Name:   "mcp",
				Usage:  "Expose the built site to LLM tools over MCP stdio",
				Action: runWith(internal.ServeMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
