// ABOUTME: Composition root wiring config, logging, persistence, archives, and remote sync.
// ABOUTME: Saves journals to plain text, then archives and mirrors a snapshot of the same entries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/2389-research/quill/internal/config"
	"github.com/2389-research/quill/internal/journal"
	"github.com/2389-research/quill/internal/logging"
	"github.com/2389-research/quill/internal/models"
	"github.com/2389-research/quill/internal/persistence"
	"github.com/2389-research/quill/internal/storage"
)

// ErrNoRemote is returned by remote operations when no remote is configured.
var ErrNoRemote = errors.New("remote sync is not configured")

// App holds the collaborators built from a Config.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	counter *journal.Counter
	manager *persistence.Manager
	archive storage.ArchiveStore
	remote  *storage.RemoteClient
}

// Option configures an App.
type Option func(*App)

// WithLogger replaces the logger built from the config.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCounter sets the sequence counter shared by journals created through the App.
func WithCounter(c *journal.Counter) Option {
	return func(a *App) {
		if c != nil {
			a.counter = c
		}
	}
}

// WithArchive replaces the archive store selected by the config.
func WithArchive(s storage.ArchiveStore) Option {
	return func(a *App) {
		a.archive = s
	}
}

// New wires an App from cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{cfg: cfg, counter: journal.NewCounter()}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to build logger: %w", err)
		}
		a.logger = logger
	}

	dir, err := cfg.GetJournalDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve journal dir: %w", err)
	}
	perm, err := cfg.FilePerm()
	if err != nil {
		return nil, err
	}
	a.manager = persistence.NewManager(
		persistence.WithOpener(persistence.FileOpener{Dir: dir, Perm: perm, MkdirAll: true}),
		persistence.WithLogger(a.logger),
	)

	if a.archive == nil {
		archive, err := openArchive(cfg)
		if err != nil {
			return nil, err
		}
		a.archive = archive
	}

	if cfg.HasRemote() {
		a.remote = storage.NewRemoteClient(cfg.Remote.APIURL, cfg.Remote.APIKey, cfg.Remote.TeamID)
	}

	a.logger.Debug("app ready",
		"journal_dir", dir,
		"archive", cfg.ArchiveBackend(),
		"remote", a.remote != nil)
	return a, nil
}

func openArchive(cfg *config.Config) (storage.ArchiveStore, error) {
	backend := cfg.ArchiveBackend()
	if backend == config.BackendNone {
		return nil, nil
	}

	path, err := cfg.GetArchivePath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve archive path: %w", err)
	}

	switch backend {
	case config.BackendSQLite:
		store, err := storage.OpenSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewMarkdownStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}
		return store, nil
	}
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the App's logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Counter returns the counter journals created by NewJournal draw from.
func (a *App) Counter() *journal.Counter { return a.counter }

// NewJournal creates a journal numbered by the App's counter.
func (a *App) NewJournal(title string) *journal.Journal {
	return journal.New(title, journal.WithCounter(a.counter))
}

// Save writes j to destination, then archives and pushes a snapshot of the
// same entries. Archive and remote errors are returned after the plain-text
// save has already succeeded.
func (a *App) Save(ctx context.Context, j *journal.Journal, destination string) error {
	snap := j.Snapshot()

	if err := a.manager.Save(snapshotSource{snap}, destination); err != nil {
		return err
	}

	if a.archive != nil {
		if err := a.archive.WriteSnapshot(ctx, snap); err != nil {
			a.logger.Warn("archive failed", "journal_id", snap.ID, "error", err)
			return fmt.Errorf("failed to archive snapshot: %w", err)
		}
		a.logger.Debug("snapshot archived", "journal_id", snap.ID, "ref", snap.Ref)
	}

	if a.remote != nil {
		if err := a.remote.PushSnapshot(ctx, snap); err != nil {
			a.logger.Warn("remote push failed", "journal_id", snap.ID, "error", err)
			return fmt.Errorf("failed to push snapshot: %w", err)
		}
		a.logger.Debug("snapshot pushed", "journal_id", snap.ID)
	}

	return nil
}

// History lists archived snapshots, most recent first. It returns nothing
// when archiving is disabled.
func (a *App) History(ctx context.Context, opts storage.ListOptions) ([]*models.JournalSnapshot, error) {
	if a.archive == nil {
		return nil, nil
	}
	return a.archive.ListSnapshots(ctx, opts)
}

// Snapshot reads one archived snapshot by its store reference.
func (a *App) Snapshot(ctx context.Context, ref string) (*models.JournalSnapshot, error) {
	if a.archive == nil {
		return nil, storage.ErrNotFound
	}
	return a.archive.ReadSnapshot(ctx, ref)
}

// RemoteHistory fetches snapshots mirrored to the remote API.
func (a *App) RemoteHistory(ctx context.Context, limit int) ([]*models.JournalSnapshot, error) {
	if a.remote == nil {
		return nil, ErrNoRemote
	}
	return a.remote.FetchSnapshots(ctx, limit)
}

// CheckRemote verifies the configured remote credentials.
func (a *App) CheckRemote(ctx context.Context) error {
	if a.remote == nil {
		return ErrNoRemote
	}
	return a.remote.Ping(ctx)
}

// Close releases the archive store.
func (a *App) Close() error {
	if a.archive == nil {
		return nil
	}
	err := a.archive.Close()
	a.archive = nil
	return err
}

// snapshotSource feeds a snapshot's entries to the persistence manager so the
// plain-text file and the archive carry identical content.
type snapshotSource struct {
	snap *models.JournalSnapshot
}

func (s snapshotSource) Entries() []string { return s.snap.Entries }
