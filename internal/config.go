package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	App ApplicationConfig `yaml:"app"`
	// ProjectRoot is the site checkout every relative path is resolved against.
	ProjectRoot string `yaml:"project_root"`
	// Sources are scanned in order; a later directory wins on a file name clash.
	Sources     []string       `yaml:"sources"`
	Attachments string         `yaml:"attachments"`
	PostsDir    string         `yaml:"posts_dir"`
	ImagesDir   string         `yaml:"images_dir"`
	Sync        SyncConfig     `yaml:"sync"`
	Manifest    ManifestConfig `yaml:"manifest"`
	Watch       WatchConfig    `yaml:"watch"`
	Auth        AuthConfig     `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Sources, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.Attachments, validation.Required),
		validation.Field(&c.PostsDir, validation.Required),
		validation.Field(&c.ImagesDir, validation.Required),
	); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// Resolve returns a copy of c with every relative path joined to ProjectRoot.
func (c *Config) Resolve() *Config {
	out := *c
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.ProjectRoot, p)
	}
	out.Sources = make([]string, len(c.Sources))
	for i, s := range c.Sources {
		out.Sources[i] = join(s)
	}
	out.Attachments = join(c.Attachments)
	out.PostsDir = join(c.PostsDir)
	out.ImagesDir = join(c.ImagesDir)
	out.Manifest.Path = join(c.Manifest.Path)
	return &out
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

// SyncConfig holds the rewrite and normalization settings of a run.
type SyncConfig struct {
	Workers           int    `yaml:"workers"`
	PublishField      string `yaml:"publish_field"`
	DefaultAuthor     string `yaml:"default_author"`
	ImagePrefix       string `yaml:"image_prefix"`
	LinkPrefix        string `yaml:"link_prefix"`
	DescriptionLength int    `yaml:"description_length"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.PublishField, validation.Required),
		validation.Field(&c.DefaultAuthor, validation.Required),
		validation.Field(&c.ImagePrefix, validation.Required),
		validation.Field(&c.LinkPrefix, validation.Required),
		validation.Field(&c.DescriptionLength, validation.Required, validation.Min(1)),
	)
}

// ManifestConfig holds the SQLite publish manifest location.
// An empty Path disables the manifest.
type ManifestConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether a manifest should be written.
func (c *ManifestConfig) Enabled() bool {
	return c.Path != ""
}

// WatchConfig holds watch mode configuration.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	HTTP     HTTPConfig    `yaml:"http"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required, validation.Min(10*time.Millisecond)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds the status server configuration. Port 0 disables it.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Enabled reports whether the status server should run.
func (c *HTTPConfig) Enabled() bool {
	return c.Port > 0
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
	)
}

// AuthConfig holds status server authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
		},
		ProjectRoot: ".",
		Sources:     []string{"./notes"},
		Attachments: "./notes/Assets",
		PostsDir:    "src/data/blog",
		ImagesDir:   "src/assets/images",
		Sync: SyncConfig{
			Workers:           4,
			PublishField:      "isPublished",
			DefaultAuthor:     "Mr.X",
			ImagePrefix:       "../../assets/images/",
			LinkPrefix:        "/posts/",
			DescriptionLength: 100,
		},
		Manifest: ManifestConfig{
			Path: ".notesync/manifest.db",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
