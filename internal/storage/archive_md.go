// ABOUTME: Markdown-based snapshot archive with YAML frontmatter.
// ABOUTME: Stores one file per snapshot in date-based directories under a single root.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/2389-research/quill/internal/models"
)

// MarkdownStore stores journal snapshots as markdown files.
type MarkdownStore struct {
	root string
}

// snapshotFrontmatter is the YAML frontmatter for snapshot files.
type snapshotFrontmatter struct {
	ID         string `yaml:"id"`
	Title      string `yaml:"title"`
	CreatedAt  string `yaml:"created_at"`
	SavedAt    string `yaml:"saved_at"`
	EntryCount int    `yaml:"entry_count"`
}

// NewMarkdownStore creates a markdown archive rooted at root.
func NewMarkdownStore(root string) (*MarkdownStore, error) {
	if root == "" {
		return nil, fmt.Errorf("archive root is required")
	}
	return &MarkdownStore{root: root}, nil
}

// WriteSnapshot persists a snapshot under
// <root>/<date>/<HH-MM-SS.micro>-<journal id8>-<snapshot id8>.md.
// The snapshot suffix is random, so repeated saves of one journal never share a file.
func (s *MarkdownStore) WriteSnapshot(ctx context.Context, snap *models.JournalSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dateDir := snap.SavedAt.Format("2006-01-02")
	timeStr := snap.SavedAt.Format("15-04-05.000000")
	filename := timeStr + "-" + snap.ShortID() + "-" + uuid.NewString()[:8] + ".md"
	path := filepath.Join(s.root, dateDir, filename)

	fm := snapshotFrontmatter{
		ID:         snap.ID.String(),
		Title:      snap.Title,
		CreatedAt:  formatTime(snap.CreatedAt),
		SavedAt:    formatTime(snap.SavedAt),
		EntryCount: len(snap.Entries),
	}

	content, err := renderFrontmatter(fm, snap.Text())
	if err != nil {
		return fmt.Errorf("failed to render frontmatter: %w", err)
	}

	if err := atomicWrite(path, []byte(content)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	snap.Ref = path
	return nil
}

// ReadSnapshot reads a snapshot from the given file path.
// The path must be within the archive root.
func (s *MarkdownStore) ReadSnapshot(ctx context.Context, path string) (*models.JournalSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	absRoot, _ := filepath.Abs(s.root)

	if !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return nil, fmt.Errorf("path %q is outside archive root", path)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return parseSnapshot(absPath, string(data))
}

// ListSnapshots lists snapshots, filtered by title and save date.
func (s *MarkdownStore) ListSnapshots(ctx context.Context, opts ListOptions) ([]*models.JournalSnapshot, error) {
	var cutoff time.Time
	if opts.Days > 0 {
		cutoff = time.Now().AddDate(0, 0, -opts.Days)
	}

	snaps, err := listSnapshotsInRoot(ctx, s.root, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots in %s: %w", s.root, err)
	}

	filtered := snaps[:0]
	for _, snap := range snaps {
		if opts.Title != "" && snap.Title != opts.Title {
			continue
		}
		// Date directories only narrow the scan; the cutoff is exact.
		if !cutoff.IsZero() && snap.SavedAt.Before(cutoff) {
			continue
		}
		filtered = append(filtered, snap)
	}
	snaps = filtered

	// Sort by save time descending (most recent first)
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].SavedAt.After(snaps[j].SavedAt)
	})

	if opts.Limit > 0 && len(snaps) > opts.Limit {
		snaps = snaps[:opts.Limit]
	}

	return snaps, nil
}

// Close releases any resources held by the store.
func (s *MarkdownStore) Close() error {
	return nil
}

// listSnapshotsInRoot scans a root directory for snapshot files.
func listSnapshotsInRoot(ctx context.Context, root string, cutoff time.Time) ([]*models.JournalSnapshot, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	dateDirs, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var snaps []*models.JournalSnapshot

	for _, dateDir := range dateDirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !dateDir.IsDir() {
			continue
		}

		// Check date cutoff by directory name
		if !cutoff.IsZero() {
			dirDate, err := time.ParseInLocation("2006-01-02", dateDir.Name(), time.Local)
			if err != nil {
				continue
			}
			cutoffDate := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.Local)
			if dirDate.Before(cutoffDate) {
				continue
			}
		}

		dirPath := filepath.Join(root, dateDir.Name())
		files, err := os.ReadDir(dirPath)
		if err != nil {
			continue
		}

		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
				continue
			}

			filePath := filepath.Join(dirPath, file.Name())
			data, err := os.ReadFile(filePath)
			if err != nil {
				continue
			}

			snap, err := parseSnapshot(filePath, string(data))
			if err != nil {
				continue
			}

			snaps = append(snaps, snap)
		}
	}

	return snaps, nil
}

// parseSnapshot parses a markdown file into a JournalSnapshot.
func parseSnapshot(path string, content string) (*models.JournalSnapshot, error) {
	yamlStr, body := parseFrontmatter(content)
	if yamlStr == "" {
		return nil, fmt.Errorf("no frontmatter found in %s", path)
	}

	var fm snapshotFrontmatter
	if err := yaml.Unmarshal([]byte(yamlStr), &fm); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	id, err := uuid.Parse(fm.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in frontmatter: %w", err)
	}

	createdAt, err := parseTime(fm.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at in frontmatter: %w", err)
	}
	savedAt, err := parseTime(fm.SavedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid saved_at in frontmatter: %w", err)
	}

	entries := parseEntries(body)
	if len(entries) != fm.EntryCount {
		return nil, fmt.Errorf("entry count mismatch in %s: frontmatter says %d, body has %d", path, fm.EntryCount, len(entries))
	}

	return &models.JournalSnapshot{
		ID:        id,
		Title:     fm.Title,
		Entries:   entries,
		CreatedAt: createdAt,
		SavedAt:   savedAt,
		Ref:       path,
	}, nil
}

// parseEntries splits a body of newline-terminated lines.
func parseEntries(body string) []string {
	if body == "" {
		return []string{}
	}
	return strings.Split(strings.TrimSuffix(body, "\n"), "\n")
}
