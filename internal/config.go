package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Preview PreviewConfig     `yaml:"preview"`
	Import  ImportConfig      `yaml:"import"`
	Export  ExportConfig      `yaml:"export"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Preview.Validate(); err != nil {
		return err
	}
	if err := c.Import.Validate(); err != nil {
		return err
	}
	return c.Export.Validate()
}

// ApplicationConfig holds application-level configuration.
//
// The editor owns the terminal, so logs go to a file rather than stdout.
type ApplicationConfig struct {
	LogLevel   slog.Level `yaml:"log_level"`
	LogFile    string     `yaml:"log_file"`
	DebounceMS int        `yaml:"debounce_ms"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFile, validation.Required),
		validation.Field(&c.DebounceMS, validation.Min(50), validation.Max(5000)),
	)
}

// Debounce returns the persistence debounce window.
func (c *ApplicationConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// StorageConfig holds the document and settings store paths.
type StorageConfig struct {
	SQLitePath   string `yaml:"sqlite_path"`
	FallbackPath string `yaml:"fallback_path"`
	SettingsPath string `yaml:"settings_path"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SQLitePath, validation.Required),
		validation.Field(&c.FallbackPath, validation.Required),
		validation.Field(&c.SettingsPath, validation.Required),
	)
}

// PreviewConfig holds the browser live-preview server configuration.
//
// When Token is non-empty every request must carry it as a Bearer token;
// the server binds loopback-only either way.
type PreviewConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Token   string `yaml:"token"`
}

// Address returns the preview server bind address.
func (c *PreviewConfig) Address() string {
	return fmt.Sprintf("127.0.0.1:%d", c.Port)
}

// AuthEnabled returns true when bearer auth is active.
func (c *PreviewConfig) AuthEnabled() bool {
	return c.Token != ""
}

// Validate validates the preview configuration.
func (c *PreviewConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ImportConfig holds the drop-directory import configuration.
type ImportConfig struct {
	Enabled  bool   `yaml:"enabled"`
	WatchDir string `yaml:"watch_dir"`
}

// Validate validates the import configuration.
func (c *ImportConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.WatchDir, validation.Required),
	)
}

// ExportConfig holds the export target directory.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
// Everything lives under a per-user data directory, so the editor runs
// with no config file at all.
func NewDefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		App: ApplicationConfig{
			LogLevel:   slog.LevelInfo,
			LogFile:    filepath.Join(dataDir, "ansuz.log"),
			DebounceMS: 500,
		},
		Storage: StorageConfig{
			SQLitePath:   filepath.Join(dataDir, "documents.db"),
			FallbackPath: filepath.Join(dataDir, "documents.json"),
			SettingsPath: filepath.Join(dataDir, "settings.json"),
		},
		Preview: PreviewConfig{
			Enabled: false,
			Port:    8652,
		},
		Import: ImportConfig{
			Enabled:  true,
			WatchDir: filepath.Join(dataDir, "inbox"),
		},
		Export: ExportConfig{
			Dir: filepath.Join(dataDir, "exports"),
		},
	}
}

func defaultDataDir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "ansuz")
	}
	return ".ansuz"
}
