// ABOUTME: Interface definition for journal snapshot archives.
// ABOUTME: Defines the contract for writing, reading, and listing archived snapshots.
package storage

import (
	"context"
	"errors"

	"github.com/2389-research/quill/internal/models"
)

// ErrNotFound is returned when a snapshot reference does not resolve.
var ErrNotFound = errors.New("snapshot not found")

// ListOptions configures filtering for listing snapshots.
type ListOptions struct {
	Title string // exact title match; empty matches all
	Limit int    // 0 = no limit
	Days  int    // only snapshots saved within the last Days*24h; 0 = no limit
}

// ArchiveStore defines operations for snapshot persistence.
type ArchiveStore interface {
	// WriteSnapshot persists a snapshot and sets its Ref to the
	// store-specific address it can later be read back by.
	WriteSnapshot(ctx context.Context, snap *models.JournalSnapshot) error

	// ReadSnapshot reads a snapshot by store-specific reference.
	ReadSnapshot(ctx context.Context, ref string) (*models.JournalSnapshot, error)

	// ListSnapshots lists snapshots, most recently saved first.
	ListSnapshots(ctx context.Context, opts ListOptions) ([]*models.JournalSnapshot, error)

	// Close releases any resources held by the store.
	Close() error
}
