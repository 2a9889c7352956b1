// ABOUTME: Core data models for journal snapshots shared by persistence and archive stores.
// ABOUTME: Provides constructor functions and the plain-text rendering of a snapshot.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// JournalSnapshot is a point-in-time copy of a journal's title and entries.
type JournalSnapshot struct {
	ID        uuid.UUID // journal ID, shared by every snapshot of the same journal
	Title     string
	Entries   []string // formatted "<n>: <text>" lines, in insertion order
	CreatedAt time.Time
	SavedAt   time.Time
	Ref       string // store-specific address: file path or row id
}

// NewJournalSnapshot creates a snapshot stamped with the current time.
// The entries slice is copied.
func NewJournalSnapshot(id uuid.UUID, title string, entries []string, createdAt time.Time) *JournalSnapshot {
	copied := make([]string, len(entries))
	copy(copied, entries)
	return &JournalSnapshot{
		ID:        id,
		Title:     title,
		Entries:   copied,
		CreatedAt: createdAt,
		SavedAt:   time.Now(),
	}
}

// Text renders the entries one per line, each newline-terminated.
func (s *JournalSnapshot) Text() string {
	var sb strings.Builder
	for _, e := range s.Entries {
		sb.WriteString(e)
		sb.WriteString("\n")
	}
	return sb.String()
}

// ShortID returns the first eight characters of the journal ID.
func (s *JournalSnapshot) ShortID() string {
	return s.ID.String()[:8]
}
