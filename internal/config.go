package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/transform"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Content   ContentConfig     `yaml:"content"`
	Build     BuildConfig       `yaml:"build"`
	Highlight HighlightConfig   `yaml:"highlight"`
	Catalog   CatalogConfig     `yaml:"catalog"`
	Auth      AuthConfig        `yaml:"auth"`
	Events    EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App,
		&c.Content,
		&c.Build,
		&c.Highlight,
		&c.Catalog,
		&c.Auth,
		&c.Events,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

var extensionRe = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// ContentConfig describes where posts live and how listings are built.
type ContentConfig struct {
	Dir        string             `yaml:"dir"`
	Extension  string             `yaml:"extension"`
	Workers    int                `yaml:"workers"`
	JoinPolicy content.JoinPolicy `yaml:"join_policy"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	if c.Extension == "" {
		c.Extension = content.DefaultExtension
	}
	if c.JoinPolicy == "" {
		c.JoinPolicy = content.FailFast
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Extension, validation.Match(extensionRe).Error("must look like .mdx")),
		validation.Field(&c.Workers, validation.Min(0)),
		validation.Field(&c.JoinPolicy, validation.In(content.FailFast, content.Partial)),
	)
}

// BuildConfig holds the default build mode for listings.
type BuildConfig struct {
	Mode models.BuildMode `yaml:"mode"`
}

// Validate validates the build configuration.
func (c *BuildConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = models.ModeProduction
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In(models.ModeProduction, models.ModeDevelopment)),
	)
}

// HighlightConfig configures code highlighting.
type HighlightConfig struct {
	Style       string `yaml:"style"`
	Classes     bool   `yaml:"classes"`
	LineNumbers bool   `yaml:"line_numbers"`
}

// Validate validates the highlight configuration.
func (c *HighlightConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Style, validation.By(func(any) error {
			if c.Style != "" && !transform.HasStyle(c.Style) {
				return errors.New("unknown chroma style")
			}
			return nil
		})),
	)
}

// Options converts the config into pipeline highlight options.
func (c *HighlightConfig) Options() transform.HighlightOptions {
	return transform.HighlightOptions{
		Style:       c.Style,
		Classes:     c.Classes,
		LineNumbers: c.LineNumbers,
	}
}

// CatalogConfig holds the SQLite search catalogue configuration.
type CatalogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the catalogue configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// EventsConfig tunes the watcher and SSE stream.
type EventsConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Dir:        "./content",
			Extension:  content.DefaultExtension,
			JoinPolicy: content.FailFast,
		},
		Build: BuildConfig{
			Mode: models.ModeProduction,
		},
		Highlight: HighlightConfig{
			Style:   "github",
			Classes: true,
		},
		Catalog: CatalogConfig{
			Enabled: true,
			Path:    "./folio.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Events: EventsConfig{
			Debounce: 200 * time.Millisecond,
			Throttle: 2 * time.Second,
		},
	}
}
