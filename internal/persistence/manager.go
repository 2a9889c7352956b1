// ABOUTME: Stateless persistence manager that writes any journal-like source to a destination.
// ABOUTME: Surfaces open, write, and close failures as SaveError without retry or rollback.
package persistence

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
)

// Source is anything exposing ordered entries, such as *journal.Journal.
type Source interface {
	Entries() []string
}

// SaveError reports an I/O failure during Save.
//
// A failure during "write" leaves the destination holding whatever lines
// were written before it; nothing is rolled back.
type SaveError struct {
	Op          string // "open", "write", or "close"
	Destination string
	Err         error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Destination, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Manager persists sources through an Opener. It holds no per-call state,
// so one Manager may serve concurrent saves of different sources.
type Manager struct {
	opener Opener
	logger *slog.Logger
}

// Option configures optional Manager dependencies.
type Option func(*Manager)

// WithOpener sets the destination opener. The default is a FileOpener.
func WithOpener(o Opener) Option {
	return func(m *Manager) {
		if o != nil {
			m.opener = o
		}
	}
}

// WithLogger sets the logger. Without it, the manager logs nothing.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a manager writing to local files by default.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		opener: FileOpener{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save writes each of src's entries as one line to destination, in order,
// replacing any existing content. Entries are read once, so concurrent
// appends to src land either wholly before or wholly after the snapshot.
func (m *Manager) Save(src Source, destination string) error {
	entries := src.Entries()

	sink, err := m.opener.Open(destination)
	if err != nil {
		return &SaveError{Op: "open", Destination: destination, Err: err}
	}

	for i, e := range entries {
		if err := sink.WriteLine(e); err != nil {
			_ = sink.Close()
			m.logger.Debug("save aborted", "destination", destination, "written", i, "total", len(entries))
			return &SaveError{Op: "write", Destination: destination, Err: err}
		}
	}

	if err := sink.Close(); err != nil {
		return &SaveError{Op: "close", Destination: destination, Err: err}
	}

	m.logger.Debug("saved entries", "destination", destination, "count", len(entries))
	return nil
}

var defaultManager = NewManager()

// Save persists src to a local file using a default Manager.
func Save(src Source, destination string) error {
	return defaultManager.Save(src, destination)
}

// ReadLines reads a persisted destination back, one entry per line.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
