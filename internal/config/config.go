package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"churchsite/internal/model"
)

// StorageConfig selects the submission persistence backend.
type StorageConfig struct {
	// Backend is one of "json", "sqlite", "postgres".
	Backend string `yaml:"backend" json:"backend"`
	// DSN is the database connection string; unused for the json backend.
	DSN string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Environment is "development" or "production"; controls log output.
	Environment string `yaml:"environment" json:"environment"`

	// Timezone is the IANA zone used as the display/schedule zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Domain is the UID suffix for generated calendar entries.
	Domain string `yaml:"domain" json:"domain"`

	// SiteName is the calendar/display name for exported feeds.
	SiteName string `yaml:"site_name" json:"site_name"`

	// DefaultLocale is the fallback locale for event text.
	DefaultLocale string `yaml:"default_locale" json:"default_locale"`

	// Locales lists the locales the site serves.
	Locales []string `yaml:"locales" json:"locales"`

	// DataDir holds events.json and the JSON submission files.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for
	// reloading event content from disk.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// AdminSecret gates the admin endpoints. Empty disables them.
	AdminSecret string `yaml:"admin_secret,omitempty" json:"admin_secret,omitempty"`

	// Storage selects where form submissions are persisted.
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Services is the weekly service schedule.
	Services []model.Service `yaml:"services" json:"services"`

	// SpecialEvents are date-ranged schedule overrides.
	SpecialEvents []model.SpecialEvent `yaml:"special_events,omitempty" json:"special_events,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8080",
		Environment:   "production",
		Timezone:      "America/New_York",
		Domain:        "fmcbethlehem.org",
		SiteName:      "First Mennonite Church Bethlehem",
		DefaultLocale: "en",
		Locales:       []string{"en", "es"},
		DataDir:       "./var/data",
		RefreshCron:   "*/15 * * * *",
		Storage:       StorageConfig{Backend: "json"},
		Services:      []model.Service{},
		SpecialEvents: []model.SpecialEvent{},
	}
}

// Normalize fills in missing/zero values with defaults so partially
// filled configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	switch c.Environment {
	case "development", "production":
	default:
		c.Environment = "production"
	}
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.Domain == "" {
		c.Domain = "fmcbethlehem.org"
	}
	if c.SiteName == "" {
		c.SiteName = "First Mennonite Church Bethlehem"
	}
	if c.DefaultLocale == "" {
		c.DefaultLocale = "en"
	}
	if len(c.Locales) == 0 {
		c.Locales = []string{c.DefaultLocale}
	}
	if c.DataDir == "" {
		c.DataDir = "./var/data"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "json"
	}
	if c.Services == nil {
		c.Services = []model.Service{}
	}
	if c.SpecialEvents == nil {
		c.SpecialEvents = []model.SpecialEvent{}
	}
}

// Location resolves the configured timezone, falling back to time.Local
// when the zone cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there
//     (0600, parent directory created) and returned.
//   - Otherwise the YAML is unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".churchsite-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
