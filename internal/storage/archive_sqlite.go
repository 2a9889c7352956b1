// ABOUTME: SQLite-backed snapshot archive using database/sql and mattn/go-sqlite3.
// ABOUTME: Each snapshot is one row plus its ordered entries, written in a single transaction.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/2389-research/quill/internal/models"
)

// schema is applied once on open. Snapshots are append-only.
const schema = `
CREATE TABLE IF NOT EXISTS journals (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    journal_id   TEXT    NOT NULL REFERENCES journals(id),
    saved_at     TEXT    NOT NULL,
    entry_count  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_entries (
    snapshot_id  INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    position     INTEGER NOT NULL,
    text         TEXT    NOT NULL,
    PRIMARY KEY (snapshot_id, position)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_saved_at ON snapshots(saved_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_journal_id ON snapshots(journal_id);
`

// sqliteTimeLayout is fixed-width so TEXT ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore archives snapshots in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and applies the schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// Single writer connection; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// sqliteDSN builds a file: URI for path. The path is percent-escaped so '?'
// and '#' in directory names are not read as the query or fragment.
func sqliteDSN(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", "5000")
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + q.Encode()
}

// WriteSnapshot inserts the snapshot and its entries. Ref is set to the row id.
func (s *SQLiteStore) WriteSnapshot(ctx context.Context, snap *models.JournalSnapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsertJournal = `
		INSERT INTO journals (id, title, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING`
	if _, err = tx.ExecContext(ctx, upsertJournal,
		snap.ID.String(), snap.Title, formatSQLiteTime(snap.CreatedAt),
	); err != nil {
		return fmt.Errorf("sqlite: save journal %s: %w", snap.ID, err)
	}

	const insertSnapshot = `INSERT INTO snapshots (journal_id, saved_at, entry_count) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, insertSnapshot,
		snap.ID.String(), formatSQLiteTime(snap.SavedAt), len(snap.Entries),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save snapshot for %s: %w", snap.ID, err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_entries (snapshot_id, position, text) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare entries: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, e := range snap.Entries {
		if _, err = stmt.ExecContext(ctx, rowID, i, e); err != nil {
			return fmt.Errorf("sqlite: save entry %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}

	snap.Ref = strconv.FormatInt(rowID, 10)
	return nil
}

// ReadSnapshot loads the snapshot whose row id is ref.
func (s *SQLiteStore) ReadSnapshot(ctx context.Context, ref string) (*models.JournalSnapshot, error) {
	rowID, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("sqlite: invalid snapshot ref %q: %w", ref, err)
	}

	const q = `
		SELECT s.id, s.journal_id, j.title, j.created_at, s.saved_at
		FROM   snapshots s
		JOIN   journals j ON j.id = s.journal_id
		WHERE  s.id = ?`

	snap, err := scanSnapshot(s.db.QueryRowContext(ctx, q, rowID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: %w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, err
	}

	if snap.Entries, err = s.loadEntries(ctx, rowID); err != nil {
		return nil, err
	}
	return snap, nil
}

// ListSnapshots lists snapshots, most recently saved first.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, opts ListOptions) ([]*models.JournalSnapshot, error) {
	const q = `
		SELECT s.id, s.journal_id, j.title, j.created_at, s.saved_at
		FROM   snapshots s
		JOIN   journals j ON j.id = s.journal_id
		WHERE  (? = '' OR j.title = ?)
		  AND  (? = '' OR s.saved_at >= ?)
		ORDER  BY s.saved_at DESC, s.id DESC
		LIMIT  ?`

	var cutoff string
	if opts.Days > 0 {
		cutoff = formatSQLiteTime(time.Now().AddDate(0, 0, -opts.Days))
	}
	limit := -1
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	rows, err := s.db.QueryContext(ctx, q, opts.Title, opts.Title, cutoff, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list snapshots: %w", err)
	}

	var snaps []*models.JournalSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("sqlite: list snapshots: %w", err)
	}
	// Entries are loaded after the cursor is released; the pool has one connection.
	_ = rows.Close()

	for _, snap := range snaps {
		rowID, _ := strconv.ParseInt(snap.Ref, 10, 64)
		if snap.Entries, err = s.loadEntries(ctx, rowID); err != nil {
			return nil, err
		}
	}
	return snaps, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) loadEntries(ctx context.Context, rowID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text FROM snapshot_entries WHERE snapshot_id = ? ORDER BY position`, rowID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load entries for %d: %w", rowID, err)
	}
	defer func() { _ = rows.Close() }()

	entries := []string{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("sqlite: scan entry: %w", err)
		}
		entries = append(entries, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: load entries for %d: %w", rowID, err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*models.JournalSnapshot, error) {
	var rowID int64
	var journalID, title, createdAtText, savedAtText string
	if err := row.Scan(&rowID, &journalID, &title, &createdAtText, &savedAtText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: scan snapshot: %w", err)
	}

	id, err := uuid.Parse(journalID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: invalid journal id %q: %w", journalID, err)
	}
	createdAt, err := parseSQLiteTime(createdAtText)
	if err != nil {
		return nil, err
	}
	savedAt, err := parseSQLiteTime(savedAtText)
	if err != nil {
		return nil, err
	}

	return &models.JournalSnapshot{
		ID:        id,
		Title:     title,
		CreatedAt: createdAt,
		SavedAt:   savedAt,
		Ref:       strconv.FormatInt(rowID, 10),
	}, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
