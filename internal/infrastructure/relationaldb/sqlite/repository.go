// Package sqlite provides a SQLite implementation of the HistoryStore interface.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/ports"
	"github.com/ersonp/name-historian/internal/infrastructure/config"
)

//go:embed schema.sql
var schemaSQL string

// SchemaVersion is the only database version this package reads and writes.
const SchemaVersion = 0

// ErrSchemaVersion is returned by EnsureSchema for databases written by an
// incompatible version.
var ErrSchemaVersion = errors.New("unsupported database version")

const memoryPath = ":memory:"

// Repository implements ports.HistoryStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

var _ ports.HistoryStore = (*Repository)(nil)

// NewRepository creates a new SQLite repository.
//
// The pool holds a single connection, so transactions never interleave within
// a process. File databases also begin every transaction IMMEDIATE, which
// takes the write lock before the first read and serializes other processes.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", dataSourceName(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// :memory: databases exist per connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

func dataSourceName(path string) string {
	if path == memoryPath {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_txlock=immediate"
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("executing %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist and checks
// that an existing database has a supported version.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return storeError("creating schema", err)
	}

	var version int
	err := r.db.QueryRowContext(ctx, "SELECT version FROM version").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: version is not set", ErrSchemaVersion)
	}
	if err != nil {
		return storeError("reading schema version", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrSchemaVersion, version, SchemaVersion)
	}
	return nil
}

// RecordObservation extends the live interval or opens a new one at now.
func (r *Repository) RecordObservation(ctx context.Context, obs entities.Observation, now time.Time) error {
	return r.inTx(ctx, "recording observation", func(tx *sql.Tx) error {
		return recordInterval(ctx, tx, obs.Interval(now))
	})
}

// RecordObservations records every observation in one transaction.
func (r *Repository) RecordObservations(ctx context.Context, observations []entities.Observation, now time.Time) error {
	if len(observations) == 0 {
		return nil
	}
	return r.inTx(ctx, "recording observations", func(tx *sql.Tx) error {
		for _, obs := range observations {
			if err := recordInterval(ctx, tx, obs.Interval(now)); err != nil {
				return err
			}
		}
		return nil
	})
}

// RecordInterval extends the live interval to interval.LastSeen or inserts interval.
func (r *Repository) RecordInterval(ctx context.Context, interval entities.NameInterval) error {
	if err := interval.Validate(); err != nil {
		return err
	}
	return r.inTx(ctx, "recording interval", func(tx *sql.Tx) error {
		return recordInterval(ctx, tx, interval)
	})
}

// History returns the identity's intervals, newest first.
func (r *Repository) History(ctx context.Context, identity uuid.UUID) ([]entities.NameInterval, error) {
	history, err := queryHistory(ctx, r.db, identity)
	if err != nil {
		return nil, storeError("reading history", err)
	}
	return history, nil
}

// LatestByName returns the most recently started interval with the given name.
func (r *Repository) LatestByName(ctx context.Context, name string) (*entities.NameInterval, error) {
	query := `
		SELECT identity, name, first_seen_time, detected_time, last_seen_time
		FROM name_history
		WHERE name = ?
		ORDER BY first_seen_time DESC, id DESC
		LIMIT 1
	`
	interval, err := scanInterval(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("looking up name", err)
	}
	return &interval, nil
}

// RewriteHistory replaces the identity's intervals with fn's result in one
// transaction. Intervals are inserted in the order fn returns them.
func (r *Repository) RewriteHistory(ctx context.Context, identity uuid.UUID, fn ports.RewriteFunc) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("rewriting history: beginning transaction", err)
	}
	defer tx.Rollback()

	stored, err := queryHistory(ctx, tx, identity)
	if err != nil {
		return storeError("rewriting history: reading", err)
	}

	replacement, err := fn(stored)
	if err != nil {
		return fmt.Errorf("rewriting history: %w", err)
	}
	for _, n := range replacement {
		if n.Identity != identity {
			return fmt.Errorf("%w: interval for %s in history of %s", entities.ErrInvalidInterval, n.Identity, identity)
		}
		if err := n.Validate(); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM name_history WHERE identity = ?", identity.String()); err != nil {
		return storeError("rewriting history: deleting", err)
	}
	for _, n := range replacement {
		if err := insertInterval(ctx, tx, n); err != nil {
			return storeError("rewriting history: inserting", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("rewriting history: committing", err)
	}
	return nil
}

// Identities lists every stored identity in the order it was first recorded.
func (r *Repository) Identities(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT identity FROM name_history
		GROUP BY identity
		ORDER BY MIN(id)
	`)
	if err != nil {
		return nil, storeError("listing identities", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, storeError("scanning identity", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, storeError("parsing identity", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("listing identities", err)
	}
	return ids, nil
}

// inTx runs fn in a transaction that is rolled back unless fn succeeds.
func (r *Repository) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError(op+": beginning transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return storeError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return storeError(op+": committing", err)
	}
	return nil
}

// recordInterval is the read-compare-write step shared by all record operations.
func recordInterval(ctx context.Context, tx *sql.Tx, n entities.NameInterval) error {
	var (
		liveID   int64
		liveName string
	)
	err := tx.QueryRowContext(ctx, `
		SELECT id, name FROM name_history
		WHERE identity = ?
		ORDER BY first_seen_time DESC, id DESC
		LIMIT 1
	`, n.Identity.String()).Scan(&liveID, &liveName)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return insertInterval(ctx, tx, n)
	case err != nil:
		return fmt.Errorf("reading live interval: %w", err)
	case liveName == n.Name:
		_, err := tx.ExecContext(ctx,
			"UPDATE name_history SET last_seen_time = MAX(last_seen_time, ?) WHERE id = ?",
			n.LastSeen.UnixMilli(), liveID)
		if err != nil {
			return fmt.Errorf("extending live interval: %w", err)
		}
		return nil
	default:
		return insertInterval(ctx, tx, n)
	}
}

func insertInterval(ctx context.Context, tx *sql.Tx, n entities.NameInterval) error {
	var detected sql.NullInt64
	if !n.Detected.IsZero() {
		detected = sql.NullInt64{Int64: n.Detected.UnixMilli(), Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO name_history (identity, name, first_seen_time, detected_time, last_seen_time)
		VALUES (?, ?, ?, ?, ?)
	`,
		n.Identity.String(),
		n.Name,
		n.FirstSeen.UnixMilli(),
		detected,
		n.LastSeen.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting interval: %w", err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryHistory(ctx context.Context, q queryer, identity uuid.UUID) ([]entities.NameInterval, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT identity, name, first_seen_time, detected_time, last_seen_time
		FROM name_history
		WHERE identity = ?
		ORDER BY first_seen_time DESC, last_seen_time DESC, id DESC
	`, identity.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []entities.NameInterval{}
	for rows.Next() {
		interval, err := scanInterval(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, interval)
	}
	return history, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInterval(s scanner) (entities.NameInterval, error) {
	var (
		rawID     string
		interval  entities.NameInterval
		firstSeen int64
		detected  sql.NullInt64
		lastSeen  int64
	)
	if err := s.Scan(&rawID, &interval.Name, &firstSeen, &detected, &lastSeen); err != nil {
		return entities.NameInterval{}, err
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return entities.NameInterval{}, fmt.Errorf("parsing identity %q: %w", rawID, err)
	}
	interval.Identity = id
	interval.FirstSeen = time.UnixMilli(firstSeen)
	interval.LastSeen = time.UnixMilli(lastSeen)
	if detected.Valid {
		interval.Detected = time.UnixMilli(detected.Int64)
	}
	return interval, nil
}

func storeError(op string, err error) error {
	if errors.Is(err, ports.ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ports.ErrStore, op, err)
}
