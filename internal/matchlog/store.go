package matchlog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tuneprint/internal/acoustid"
	"tuneprint/internal/media"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes; older databases must be cleared.
const schemaVersion = 1

var (
	// ErrSchemaMismatch indicates the database was created by a different schema version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
	// ErrLocked indicates another process holds the store.
	ErrLocked = errors.New("match log in use by another process")
	// ErrNotFound indicates no reply is stored for the requested file.
	ErrNotFound = errors.New("no match details recorded")
	// ErrReadOnly indicates a write on a store opened for reading.
	ErrReadOnly = errors.New("match log opened read-only")
)

// Reply is the stored raw lookup reply for one file.
type Reply struct {
	Path       string
	RawJSON    string
	RunID      string
	RecordedAt time.Time
}

// Summary is one row of List.
type Summary struct {
	Path       string
	RecordedAt time.Time
	Entries    int
	BestScore  float64
}

// Store persists match details in SQLite.
type Store struct {
	db       *sql.DB
	path     string
	lock     *flock.Flock
	readOnly bool
	runID    string
}

var _ acoustid.Recorder = (*Store)(nil)

// Open opens the store for writing, creating it when missing. It fails with
// ErrLocked while another process has the store open.
func Open(path string) (*Store, error) {
	return open(path, false)
}

// OpenReadOnly opens an existing store for inspection.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat match log: %w", err)
	}
	return open(path, true)
}

func open(path string, readOnly bool) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create match log dir: %w", err)
	}

	lock := flock.New(path + ".lock")
	var (
		locked bool
		err    error
	)
	if readOnly {
		locked, err = lock.TryRLock()
	} else {
		locked, err = lock.TryLock()
	}
	if err != nil {
		return nil, fmt.Errorf("acquire match log lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, lock: lock, readOnly: readOnly, runID: uuid.NewString()}
	if err := store.initSchema(context.Background()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database and the file lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Unlock())
	}
	return errors.Join(errs...)
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// RunID identifies the process that opened the store; every reply it
// records carries it.
func (s *Store) RunID() string { return s.runID }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		if s.readOnly {
			return fmt.Errorf("%w: uninitialized database", ErrSchemaMismatch)
		}
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start a new log)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Record replaces the stored reply and detail entries for file.
func (s *Store) Record(ctx context.Context, file *media.File, raw []byte, recordings []acoustid.ScoredRecording) error {
	if s.readOnly {
		return ErrReadOnly
	}
	key := string(file.Key())
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM match_entries WHERE file_key = ?", key); err != nil {
		return fmt.Errorf("delete old entries: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO replies (file_key, path, raw_json, run_id, recorded_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(file_key) DO UPDATE SET
            path = excluded.path, raw_json = excluded.raw_json,
            run_id = excluded.run_id, recorded_at = excluded.recorded_at`,
		key, file.Path(), nullableString(string(raw)), s.runID, now,
	)
	if err != nil {
		return fmt.Errorf("upsert reply: %w", err)
	}

	for _, entry := range EntriesFrom(recordings) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO match_entries (
                file_key, seq, entry_type, acoustid, recording_id, rec_title, rec_length_ms, rec_sources,
                rec_artist, release_group_id, release_title, primary_type, secondary_types, release_id,
                country, release_date, medium_format, medium_position, medium_count, track_id,
                track_position, medium_track_count, release_track_count, score
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			key, entry.Seq, entry.Type, entry.AcoustID, entry.RecordingID, entry.Title, entry.LengthMS, entry.Sources,
			entry.Artist, entry.ReleaseGroupID, entry.ReleaseTitle, entry.PrimaryType, entry.SecondaryTypes, entry.ReleaseID,
			entry.Country, entry.Date, entry.MediumFormat, entry.MediumPosition, entry.MediumCount, entry.TrackID,
			entry.TrackPosition, entry.MediumTrackCount, entry.ReleaseTrackCount, entry.Score,
		)
		if err != nil {
			return fmt.Errorf("insert entry %d: %w", entry.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// Show returns the stored reply and entries for key.
func (s *Store) Show(ctx context.Context, key media.Key) (Reply, []Entry, error) {
	var (
		reply      Reply
		raw        sql.NullString
		recordedAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT path, raw_json, run_id, recorded_at FROM replies WHERE file_key = ?", string(key),
	).Scan(&reply.Path, &raw, &reply.RunID, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Reply{}, nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Reply{}, nil, fmt.Errorf("query reply: %w", err)
	}
	reply.RawJSON = raw.String
	reply.RecordedAt = parseTime(recordedAt)

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, entry_type, acoustid, recording_id, rec_title, rec_length_ms, rec_sources, rec_artist,
            release_group_id, release_title, primary_type, secondary_types, release_id, country, release_date,
            medium_format, medium_position, medium_count, track_id, track_position, medium_track_count,
            release_track_count, score
         FROM match_entries WHERE file_key = ? ORDER BY seq`, string(key))
	if err != nil {
		return Reply{}, nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.Type, &e.AcoustID, &e.RecordingID, &e.Title, &e.LengthMS, &e.Sources, &e.Artist,
			&e.ReleaseGroupID, &e.ReleaseTitle, &e.PrimaryType, &e.SecondaryTypes, &e.ReleaseID, &e.Country, &e.Date,
			&e.MediumFormat, &e.MediumPosition, &e.MediumCount, &e.TrackID, &e.TrackPosition, &e.MediumTrackCount,
			&e.ReleaseTrackCount, &e.Score); err != nil {
			return Reply{}, nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return Reply{}, nil, fmt.Errorf("iterate entries: %w", err)
	}
	return reply, entries, nil
}

// List summarizes every recorded file, most recent first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.path, r.recorded_at, COUNT(e.id), COALESCE(MAX(e.score), 0)
         FROM replies r LEFT JOIN match_entries e ON e.file_key = r.file_key
         GROUP BY r.file_key
         ORDER BY r.recorded_at DESC, r.path`)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			summary    Summary
			recordedAt string
		)
		if err := rows.Scan(&summary.Path, &recordedAt, &summary.Entries, &summary.BestScore); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summary.RecordedAt = parseTime(recordedAt)
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}

// Clear removes every stored reply and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if s.readOnly {
		return 0, ErrReadOnly
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM replies")
	if err != nil {
		return 0, fmt.Errorf("clear replies: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
