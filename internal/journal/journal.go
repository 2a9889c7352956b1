// ABOUTME: In-memory append-only journal of sequence-numbered text entries.
// ABOUTME: Entries are formatted "<n>: <text>" using an injected or process-wide counter.
package journal

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/quill/internal/models"
)

// Journal is a titled, append-only collection of numbered entries.
// Journals may be safely used concurrently.
type Journal struct {
	id        uuid.UUID
	title     string
	createdAt time.Time
	counter   *Counter

	mu      sync.RWMutex
	entries []string
}

// Option configures optional Journal dependencies.
type Option func(*Journal)

// WithCounter numbers entries from c instead of the process-wide Default.
func WithCounter(c *Counter) Option {
	return func(j *Journal) {
		if c != nil {
			j.counter = c
		}
	}
}

// WithID sets the journal ID instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(j *Journal) {
		j.id = id
	}
}

// New creates an empty journal with the given title.
func New(title string, opts ...Option) *Journal {
	j := &Journal{
		id:        uuid.New(),
		title:     title,
		createdAt: time.Now(),
		counter:   Default,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// ID returns the journal's identifier.
func (j *Journal) ID() uuid.UUID { return j.id }

// Title returns the journal's display label.
func (j *Journal) Title() string { return j.title }

// CreatedAt returns when the journal was constructed.
func (j *Journal) CreatedAt() time.Time { return j.createdAt }

// Add appends text as "<n>: <text>", where n is the counter's next number.
func (j *Journal) Add(text string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	// Drawing under the lock keeps per-journal order equal to numbering order.
	n := j.counter.Next()
	j.entries = append(j.entries, strconv.FormatInt(n, 10)+": "+text)
}

// Entries returns a copy of the entries in insertion order.
func (j *Journal) Entries() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len returns the number of entries.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// Snapshot captures the journal's current state for archiving.
func (j *Journal) Snapshot() *models.JournalSnapshot {
	return models.NewJournalSnapshot(j.id, j.title, j.Entries(), j.createdAt)
}

// filePerm matches persistence.DefaultPerm so both save paths create identical files.
const filePerm = 0o644

// Save writes every entry as its own line to path, truncating existing content.
// Use persistence.Manager for anything beyond a local file.
func (j *Journal) Save(path string) (err error) {
	entries := j.Entries()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		if _, err := w.WriteString(e + "\n"); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
