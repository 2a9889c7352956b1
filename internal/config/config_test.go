// ABOUTME: Tests for quill configuration loading and path expansion.
// ABOUTME: Covers YAML parsing, defaults, validation, path expansion, and remote detection.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"tilde only", "~", home},
		{"tilde slash", "~/foo/bar", filepath.Join(home, "foo", "bar")},
		{"absolute", "/tmp/foo", "/tmp/foo"},
		{"relative", "foo/bar", "foo/bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			if err != nil {
				t.Fatalf("ExpandPath(%q) error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadDefaultConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.HasRemote() {
		t.Error("expected HasRemote() to be false for default config")
	}
	if cfg.ArchiveBackend() != BackendMarkdown {
		t.Errorf("ArchiveBackend() = %q, want %q", cfg.ArchiveBackend(), BackendMarkdown)
	}
	perm, err := cfg.FilePerm()
	if err != nil {
		t.Fatalf("FilePerm() error: %v", err)
	}
	if perm != 0o644 {
		t.Errorf("FilePerm() = %v, want 0644", perm)
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configDir := filepath.Join(tmpDir, "quill")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configData := `journal:
  dir: "~/my-journals"
  file_mode: "0600"
archive:
  backend: "sqlite"
  path: "~/archive.db"
remote:
  api_key: "test-key"
  team_id: "test-team"
  api_url: "https://api.example.com"
log:
  level: "debug"
  format: "json"
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configData), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !cfg.HasRemote() {
		t.Error("expected HasRemote() to be true")
	}
	if cfg.Remote.APIURL != "https://api.example.com" {
		t.Errorf("expected api_url 'https://api.example.com', got %q", cfg.Remote.APIURL)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.ArchiveBackend() != BackendSQLite {
		t.Errorf("ArchiveBackend() = %q, want sqlite", cfg.ArchiveBackend())
	}

	home, _ := os.UserHomeDir()
	if got, err := cfg.GetJournalDir(); err != nil {
		t.Fatalf("GetJournalDir() error: %v", err)
	} else if got != filepath.Join(home, "my-journals") {
		t.Errorf("GetJournalDir() = %q", got)
	}
	if got, err := cfg.GetArchivePath(); err != nil {
		t.Fatalf("GetArchivePath() error: %v", err)
	} else if got != filepath.Join(home, "archive.db") {
		t.Errorf("GetArchivePath() = %q", got)
	}
	if perm, err := cfg.FilePerm(); err != nil {
		t.Fatalf("FilePerm() error: %v", err)
	} else if perm != 0o600 {
		t.Errorf("FilePerm() = %v, want 0600", perm)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("archive:\n  backend: \"postgres\"\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestLoadRejectsBadFileMode(t *testing.T) {
	tests := []string{"rw-r--r--", "1777", "999"}
	for _, mode := range tests {
		t.Run(mode, func(t *testing.T) {
			cfg := &Config{Journal: JournalConfig{FileMode: mode}}
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected error for file_mode %q", mode)
			}
		})
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("journal: [unterminated"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := &Config{
		Journal: JournalConfig{Dir: "~/saved-journals"},
		Archive: ArchiveConfig{Backend: BackendNone},
		Remote: RemoteConfig{
			APIKey: "saved-key",
			TeamID: "saved-team",
			APIURL: "https://saved.example.com",
		},
	}

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if loaded.Remote.APIKey != "saved-key" {
		t.Errorf("expected api_key 'saved-key', got %q", loaded.Remote.APIKey)
	}
	if loaded.ArchiveBackend() != BackendNone {
		t.Errorf("expected backend none, got %q", loaded.ArchiveBackend())
	}
	if loaded.Journal.Dir != "~/saved-journals" {
		t.Errorf("expected dir '~/saved-journals', got %q", loaded.Journal.Dir)
	}
}

func TestHasRemotePartial(t *testing.T) {
	cfg := &Config{
		Remote: RemoteConfig{
			APIKey: "key",
			// missing TeamID and APIURL
		},
	}
	if cfg.HasRemote() {
		t.Error("HasRemote() should be false when team_id and api_url are empty")
	}
}

func TestDefaultPaths(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	cfg := &Config{}
	dir, err := cfg.GetJournalDir()
	if err != nil {
		t.Fatalf("GetJournalDir() error: %v", err)
	}
	cwd, _ := os.Getwd()
	if dir != cwd {
		t.Errorf("GetJournalDir() = %q, want %q", dir, cwd)
	}

	archive, err := cfg.GetArchivePath()
	if err != nil {
		t.Fatalf("GetArchivePath() error: %v", err)
	}
	if archive != filepath.Join(dataHome, "quill", "archive") {
		t.Errorf("GetArchivePath() = %q", archive)
	}

	cfg.Archive.Backend = BackendSQLite
	archive, err = cfg.GetArchivePath()
	if err != nil {
		t.Fatalf("GetArchivePath() error: %v", err)
	}
	if archive != filepath.Join(dataHome, "quill", "archive.db") {
		t.Errorf("GetArchivePath() = %q", archive)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	content := `journal:
  dir: /from/yaml
archive:
  backend: markdown
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	t.Setenv("QUILL_JOURNAL_DIR", "/from/env")
	t.Setenv("QUILL_ARCHIVE_BACKEND", "sqlite")
	t.Setenv("QUILL_LOG_FORMAT", "json")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Journal.Dir != "/from/env" {
		t.Errorf("expected env to override dir, got %q", cfg.Journal.Dir)
	}
	if cfg.ArchiveBackend() != BackendSQLite {
		t.Errorf("expected sqlite backend, got %q", cfg.ArchiveBackend())
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected json log format, got %q", cfg.Log.Format)
	}
}

func TestLoadEnvWithoutFile(t *testing.T) {
	t.Setenv("QUILL_API_URL", "https://api.example.com")
	t.Setenv("QUILL_API_KEY", "key")
	t.Setenv("QUILL_TEAM_ID", "team")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if !cfg.HasRemote() {
		t.Error("expected remote configured from environment")
	}
}

func TestLoadEnvValidated(t *testing.T) {
	t.Setenv("QUILL_FILE_MODE", "banana")
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for invalid file mode from environment")
	}
}
