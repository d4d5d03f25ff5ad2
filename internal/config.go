package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vos/internal/markup"
	"github.com/starford/vos/internal/page"
	"github.com/starford/vos/internal/site"
)

// Log output formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Site    SiteConfig        `yaml:"site"`
	Media   MediaConfig       `yaml:"media"`
	Log     LogConfig         `yaml:"log"`
	Preview PreviewConfig     `yaml:"preview"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if err := c.Media.Validate(); err != nil {
		return fmt.Errorf("media: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Preview.Validate(); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.Required, validation.In(LogFormatJSON, LogFormatText)),
	)
}

// SiteConfig describes where sources live and where pages are written.
// Relative paths resolve against Root.
type SiteConfig struct {
	Root         string        `yaml:"root"`
	ArtifactDir  string        `yaml:"artifact_dir"`
	TemplatePath string        `yaml:"template_path"`
	LogPath      string        `yaml:"log_path"`
	OutputDir    string        `yaml:"output_dir"`
	Assets       []AssetConfig `yaml:"assets"`
	Workers      int           `yaml:"workers"`
	Variant      string        `yaml:"variant"`
}

// OutputPath returns OutputDir, resolved against Root when relative.
func (c *SiteConfig) OutputPath() string {
	if filepath.IsAbs(c.OutputDir) {
		return c.OutputDir
	}
	return filepath.Join(c.Root, c.OutputDir)
}

// AssetConfig copies a file or directory into the output.
type AssetConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.ArtifactDir, validation.Required),
		validation.Field(&c.TemplatePath, validation.Required),
		validation.Field(&c.LogPath, validation.Required),
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.Variant, validation.Required, validation.In(string(page.VariantBundle), string(page.VariantModule))),
	); err != nil {
		return err
	}
	for i := range c.Assets {
		a := &c.Assets[i]
		if err := validation.ValidateStruct(a,
			validation.Field(&a.From, validation.Required),
			validation.Field(&a.To, validation.Required),
		); err != nil {
			return fmt.Errorf("assets[%d]: %w", i, err)
		}
	}
	return nil
}

// MediaConfig locates embedded media on the CDN.
type MediaConfig struct {
	Root   string `yaml:"root"`
	Files  string `yaml:"files"`
	Images string `yaml:"images"`
	Sounds string `yaml:"sounds"`
	Videos string `yaml:"videos"`
}

// Validate validates the media configuration.
func (c *MediaConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Files, validation.Required),
		validation.Field(&c.Images, validation.Required),
		validation.Field(&c.Sounds, validation.Required),
		validation.Field(&c.Videos, validation.Required),
	)
}

// Dirs returns the absolute directory URL for each media kind.
func (c *MediaConfig) Dirs() markup.MediaDirs {
	dir := func(sub string) string {
		return strings.TrimRight(c.Root, "/") + "/" + strings.Trim(sub, "/") + "/"
	}
	return markup.MediaDirs{
		Files:  dir(c.Files),
		Images: dir(c.Images),
		Sounds: dir(c.Sounds),
		Videos: dir(c.Videos),
	}
}

// LogConfig controls how the productivity log is read.
type LogConfig struct {
	// HeaderRows leading rows are kept for excerpts but skipped by aggregates.
	HeaderRows int `yaml:"header_rows"`
}

// Validate validates the log configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HeaderRows, validation.Min(0)),
	)
}

// PreviewConfig holds the preview server configuration.
type PreviewConfig struct {
	Port     int           `yaml:"port"`
	Debounce time.Duration `yaml:"debounce"`
	// Token guards the POST API routes. Empty
	// disables the check.
	Token string `yaml:"token"`
}

// Address returns the preview server address.
func (c *PreviewConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the preview configuration.
func (c *PreviewConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// SiteBuild converts the configuration into builder settings.
func (c *Config) SiteBuild() site.Config {
	assets := make([]site.AssetCopy, len(c.Site.Assets))
	for i, a := range c.Site.Assets {
		assets[i] = site.AssetCopy{From: a.From, To: a.To}
	}
	return site.Config{
		ArtifactDir:  c.Site.ArtifactDir,
		TemplatePath: c.Site.TemplatePath,
		LogPath:      c.Site.LogPath,
		Assets:       assets,
		Workers:      c.Site.Workers,
		Variant:      page.Variant(c.Site.Variant),
		HeaderRows:   c.Log.HeaderRows,
		Media:        c.Media.Dirs(),
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
		},
		Site: SiteConfig{
			Root:         ".",
			ArtifactDir:  "artifacts",
			TemplatePath: "assets/html/page.html",
			LogPath:      "assets/log/Productivity.csv",
			OutputDir:    "dist",
			Assets: []AssetConfig{
				{From: "assets/styles", To: "assets/styles"},
				{From: "assets/scripts", To: "assets/scripts"},
				{From: "assets/ui", To: "assets/ui"},
				{From: "assets/htaccess/.htaccess", To: ".htaccess"},
			},
			Workers: 4,
			Variant: string(page.VariantBundle),
		},
		Media: MediaConfig{
			Root:   "https://v-os.nyc3.cdn.digitaloceanspaces.com",
			Files:  "files",
			Images: "images",
			Sounds: "sounds",
			Videos: "videos",
		},
		Log: LogConfig{
			HeaderRows: 1,
		},
		Preview: PreviewConfig{
			Port:     8080,
			Debounce: 300 * time.Millisecond,
		},
	}
}
