package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/postmigrate/internal/batch"
	"github.com/starford/postmigrate/internal/migrate"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Migrate MigrateConfig     `yaml:"migrate"`
	Ledger  LedgerConfig      `yaml:"ledger"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	return c.Migrate.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// MigrateConfig holds everything that shapes a migration run.
type MigrateConfig struct {
	migrate.Options `yaml:",inline"`

	Pattern    string `yaml:"pattern"`
	CleanDir   bool   `yaml:"clean_dir"`
	Workers    int    `yaml:"workers"`
	Collisions string `yaml:"collisions"`
	Manifest   string `yaml:"manifest"`
	Watch      bool   `yaml:"watch"`
}

// Validate validates the migration configuration.
func (c *MigrateConfig) Validate() error {
	if c.Collisions == "" {
		c.Collisions = string(batch.CollisionOverwrite)
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Pattern, validation.Required),
		validation.Field(&c.ResultsDir, validation.Required),
		validation.Field(&c.Workers, validation.Min(0)),
		validation.Field(&c.Collisions, validation.In(string(batch.CollisionOverwrite), string(batch.CollisionError))),
	); err != nil {
		return err
	}
	if c.CleanDir {
		abs, err := filepath.Abs(c.ResultsDir)
		if err != nil {
			return fmt.Errorf("migrate: resolve results_dir: %w", err)
		}
		if wd, _ := filepath.Abs("."); abs == wd || abs == filepath.Dir(abs) {
			return fmt.Errorf("migrate: refusing to clean %q", c.ResultsDir)
		}
	}
	return nil
}

// CollisionPolicy returns the parsed collision policy.
func (c *MigrateConfig) CollisionPolicy() batch.CollisionPolicy {
	p, err := batch.ParseCollisionPolicy(c.Collisions)
	if err != nil {
		return batch.CollisionOverwrite
	}
	return p
}

// LedgerConfig holds the SQLite ledger location. An empty path disables it.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Enabled returns true when a ledger path is configured.
func (c *LedgerConfig) Enabled() bool {
	return c.Path != ""
}

// NewDefaultConfig returns a new Config with the defaults of the original
// command line tool.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
		},
		Migrate: MigrateConfig{
			Options: migrate.Options{
				ResultsDir: "output",
			},
			Pattern:    "**/*.md",
			Collisions: string(batch.CollisionOverwrite),
		},
	}
}
