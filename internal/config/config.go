// ABOUTME: Configuration management for quill with YAML config loading.
// ABOUTME: Handles journal directory, archive backend, remote sync, logging, and ~ expansion.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Archive backends.
const (
	BackendMarkdown = "markdown"
	BackendSQLite   = "sqlite"
	BackendNone     = "none"
)

// Config stores quill configuration loaded from ~/.config/quill/config.yaml.
type Config struct {
	Journal JournalConfig `yaml:"journal"`
	Archive ArchiveConfig `yaml:"archive"`
	Remote  RemoteConfig  `yaml:"remote"`
	Log     LogConfig     `yaml:"log"`
}

// JournalConfig controls where plain-text journals are saved.
type JournalConfig struct {
	Dir      string `yaml:"dir" env:"QUILL_JOURNAL_DIR"`
	FileMode string `yaml:"file_mode" env:"QUILL_FILE_MODE"`
}

// ArchiveConfig selects the snapshot archive backend.
type ArchiveConfig struct {
	Backend string `yaml:"backend" env:"QUILL_ARCHIVE_BACKEND"`
	Path    string `yaml:"path" env:"QUILL_ARCHIVE_PATH"`
}

// RemoteConfig holds remote journal API settings.
type RemoteConfig struct {
	APIKey string `yaml:"api_key" env:"QUILL_API_KEY"`
	TeamID string `yaml:"team_id" env:"QUILL_TEAM_ID"`
	APIURL string `yaml:"api_url" env:"QUILL_API_URL"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level" env:"QUILL_LOG_LEVEL"`
	Format string `yaml:"format" env:"QUILL_LOG_FORMAT"`
}

// HasRemote returns true if remote sync is configured.
func (c *Config) HasRemote() bool {
	return c.Remote.APIKey != "" && c.Remote.TeamID != "" && c.Remote.APIURL != ""
}

// GetJournalDir returns the base directory for saved journals, defaulting to the cwd.
func (c *Config) GetJournalDir() (string, error) {
	if c.Journal.Dir != "" {
		return ExpandPath(c.Journal.Dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return cwd, nil
}

// FilePerm parses the configured file mode, defaulting to 0644.
func (c *Config) FilePerm() (fs.FileMode, error) {
	if c.Journal.FileMode == "" {
		return 0o644, nil
	}
	mode, err := strconv.ParseUint(c.Journal.FileMode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file_mode %q: %w", c.Journal.FileMode, err)
	}
	if mode > 0o777 {
		return 0, fmt.Errorf("invalid file_mode %q: permission bits only", c.Journal.FileMode)
	}
	return fs.FileMode(mode), nil
}

// ArchiveBackend returns the configured backend, defaulting to markdown.
func (c *Config) ArchiveBackend() string {
	if c.Archive.Backend == "" {
		return BackendMarkdown
	}
	return strings.ToLower(c.Archive.Backend)
}

// GetArchivePath returns the archive location for the configured backend.
func (c *Config) GetArchivePath() (string, error) {
	if c.Archive.Path != "" {
		return ExpandPath(c.Archive.Path)
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	if c.ArchiveBackend() == BackendSQLite {
		return filepath.Join(dataDir, "archive.db"), nil
	}
	return filepath.Join(dataDir, "archive"), nil
}

// DataDir returns the default quill data directory.
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "quill"), nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "quill", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads config from the default path. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path, then applies QUILL_* environment overrides.
// A missing file yields defaults.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.ArchiveBackend() {
	case BackendMarkdown, BackendSQLite, BackendNone:
	default:
		return fmt.Errorf("unknown archive backend %q", c.Archive.Backend)
	}
	if _, err := c.FilePerm(); err != nil {
		return err
	}
	return nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
