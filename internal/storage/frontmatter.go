// ABOUTME: Markdown frontmatter rendering/parsing and atomic file writes via renameio.
// ABOUTME: Shared helpers for file-based archive stores.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// formatTime renders timestamps stored in frontmatter.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses timestamps written by formatTime.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// renderFrontmatter marshals fm as YAML between --- delimiters, followed by body.
func renderFrontmatter(fm any, body string) (string, error) {
	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(frontmatterDelim + "\n")
	sb.Write(data)
	sb.WriteString(frontmatterDelim + "\n")
	sb.WriteString(body)
	return sb.String(), nil
}

// parseFrontmatter splits content into its YAML frontmatter and body.
// yamlStr is empty when content has no frontmatter.
func parseFrontmatter(content string) (yamlStr, body string) {
	if !strings.HasPrefix(content, frontmatterDelim+"\n") {
		return "", content
	}
	rest := content[len(frontmatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontmatterDelim+"\n")
	if end < 0 {
		return "", content
	}
	return rest[:end+1], rest[end+len(frontmatterDelim)+2:]
}

// atomicWrite creates the parent directory, then replaces path with data
// through a synced temp file and rename.
func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return renameio.WriteFile(path, data, 0o644)
}
