package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/postmigrate/internal"
	pkgconfig "github.com/starford/postmigrate/pkg/config"
)

// loadConfig layers defaults, the optional config file, and explicitly set
// flags, in that order.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	m := &cfg.Migrate
	if pattern := cmd.Args().First(); pattern != "" {
		m.Pattern = pattern
	}
	if cmd.IsSet("output") {
		m.ResultsDir = cmd.String("output")
	}
	if cmd.IsSet("no-folders") {
		m.NoFolders = cmd.Bool("no-folders")
	}
	if cmd.IsSet("clean-dir") {
		m.CleanDir = cmd.Bool("clean-dir")
	}
	if cmd.IsSet("keep-dates") {
		m.KeepDates = cmd.Bool("keep-dates")
	}
	if cmd.IsSet("no-url-replace") {
		m.NoURLReplace = cmd.Bool("no-url-replace")
	}
	if cmd.IsSet("no-slug") {
		m.NoSlug = cmd.Bool("no-slug")
	}
	if cmd.IsSet("workers") {
		m.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("collisions") {
		m.Collisions = cmd.String("collisions")
	}
	if cmd.IsSet("manifest") {
		m.Manifest = cmd.String("manifest")
	}
	if cmd.IsSet("watch") {
		m.Watch = cmd.Bool("watch")
	}
	if cmd.IsSet("ledger") {
		cfg.Ledger.Path = cmd.String("ledger")
	}
	if cmd.IsSet("log-format") {
		cfg.App.LogFormat = cmd.String("log-format")
	}
	if cmd.Bool("verbose") {
		cfg.App.LogLevel = slog.LevelDebug
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func history(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.History(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:      "postmigrate",
		Usage:     "Migrate date-prefixed Jekyll posts into slug-named files with date and slug frontmatter",
		ArgsUsage: "[pattern]",
		Action:    run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional YAML config file",
				Sources: cli.EnvVars("POSTMIGRATE_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:    "no-folders",
				Aliases: []string{"f"},
				Usage:   "Write <name>.md instead of <name>/index.md",
				Sources: cli.EnvVars("POSTMIGRATE_NO_FOLDERS"),
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Results directory",
				DefaultText: "output",
				Sources:     cli.EnvVars("POSTMIGRATE_OUTPUT"),
			},
			&cli.BoolFlag{
				Name:    "clean-dir",
				Aliases: []string{"d"},
				Usage:   "Remove the results directory before writing",
				Sources: cli.EnvVars("POSTMIGRATE_CLEAN_DIR"),
			},
			&cli.BoolFlag{
				Name:    "keep-dates",
				Aliases: []string{"k"},
				Usage:   "Keep the date prefix in output names",
				Sources: cli.EnvVars("POSTMIGRATE_KEEP_DATES"),
			},
			&cli.BoolFlag{
				Name:    "no-url-replace",
				Aliases: []string{"u"},
				Usage:   "Keep {{ site.url }}{{ site.baseurl }} tokens",
				Sources: cli.EnvVars("POSTMIGRATE_NO_URL_REPLACE"),
			},
			&cli.BoolFlag{
				Name:    "no-slug",
				Aliases: []string{"s"},
				Usage:   "Do not add a slug line to the frontmatter",
				Sources: cli.EnvVars("POSTMIGRATE_NO_SLUG"),
			},
			&cli.IntFlag{
				Name:        "workers",
				Aliases:     []string{"j"},
				Usage:       "Files processed in parallel",
				DefaultText: "number of CPUs",
				Sources:     cli.EnvVars("POSTMIGRATE_WORKERS"),
			},
			&cli.StringFlag{
				Name:        "collisions",
				Usage:       "What to do when two posts map to one output: overwrite or error",
				DefaultText: "overwrite",
				Sources:     cli.EnvVars("POSTMIGRATE_COLLISIONS"),
			},
			&cli.StringFlag{
				Name:    "manifest",
				Usage:   "Write a YAML manifest of the run to this path",
				Sources: cli.EnvVars("POSTMIGRATE_MANIFEST"),
			},
			&cli.StringFlag{
				Name:    "ledger",
				Usage:   "Record runs in this SQLite database",
				Sources: cli.EnvVars("POSTMIGRATE_LEDGER"),
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Keep running and migrate sources as they change",
				Sources: cli.EnvVars("POSTMIGRATE_WATCH"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log at debug level",
				Sources: cli.EnvVars("POSTMIGRATE_VERBOSE"),
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "Log format: text or json",
				DefaultText: "text",
				Sources:     cli.EnvVars("POSTMIGRATE_LOG_FORMAT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "history",
				Usage:  "Print the most recent run recorded in the ledger",
				Action: history,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
