// ABOUTME: Line-oriented destination abstraction for persisting journal entries.
// ABOUTME: FileOpener opens local files with truncate-on-open semantics.
package persistence

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Sink accepts one line at a time and must be closed when done.
type Sink interface {
	// WriteLine writes text followed by a newline.
	WriteLine(text string) error

	// Close flushes buffered output and releases the destination.
	Close() error
}

// Opener opens a destination for writing, discarding any existing content.
type Opener interface {
	Open(destination string) (Sink, error)
}

// DefaultPerm is the file mode used when FileOpener.Perm is zero.
const DefaultPerm fs.FileMode = 0o644

// FileOpener opens destinations as files on the local filesystem.
type FileOpener struct {
	Dir      string      // base for relative destinations; empty means as given
	Perm     fs.FileMode // mode for newly created files
	MkdirAll bool        // create missing parent directories
}

// Resolve returns the filesystem path for a destination.
func (o FileOpener) Resolve(destination string) string {
	if o.Dir == "" || filepath.IsAbs(destination) {
		return destination
	}
	return filepath.Join(o.Dir, destination)
}

// Open truncates or creates the file for destination.
func (o FileOpener) Open(destination string) (Sink, error) {
	path := o.Resolve(destination)
	perm := o.Perm
	if perm == 0 {
		perm = DefaultPerm
	}

	if o.MkdirAll {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, err
	}
	return &fileSink{f: f, w: bufio.NewWriter(f)}, nil
}

type fileSink struct {
	f *os.File
	w *bufio.Writer
}

func (s *fileSink) WriteLine(text string) error {
	if _, err := s.w.WriteString(text); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *fileSink) Close() error {
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
