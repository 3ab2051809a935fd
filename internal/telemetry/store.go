package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// Journal persists telemetry events to SQLite so usage history survives
// restarts.
type Journal struct {
	db   *sql.DB
	mu   sync.Mutex // Serialize migrations
	once sync.Once  // Ensure _migrations table created once
}

type migration struct {
	version     int
	description string
	stmt        string
}

var journalMigrations = []migration{
	{
		version:     1,
		description: "create telemetry_events",
		stmt: `
			CREATE TABLE IF NOT EXISTS telemetry_events (
				id          INTEGER  PRIMARY KEY AUTOINCREMENT,
				kind        TEXT     NOT NULL,
				payload     TEXT     NOT NULL,
				created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`,
	},
	{
		version:     2,
		description: "index telemetry_events by kind",
		stmt:        `CREATE INDEX IF NOT EXISTS idx_telemetry_events_kind ON telemetry_events (kind, created_at)`,
	},
}

// OpenJournal opens (or creates) the telemetry journal at the given path
// and applies recommended pragmas for WAL mode and performance.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// SQLite performs best with a single write connection. WAL enables concurrent readers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	// Apply recommended pragmas (modernc.org/sqlite requires SQL statements, not DSN params).
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	j := &Journal{db: db}
	if err := j.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Insert journals one event.
func (j *Journal) Insert(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Kind(), err)
	}
	_, err = j.db.ExecContext(ctx,
		"INSERT INTO telemetry_events (kind, payload) VALUES (?, ?)",
		e.Kind(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", e.Kind(), err)
	}
	return nil
}

// Entry is one journaled event as read back from the store.
type Entry struct {
	ID        int64           `json:"id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Recent returns the most recent events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT id, kind, payload, created_at FROM telemetry_events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query telemetry events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var payload string
		if err := rows.Scan(&e.ID, &e.Kind, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan telemetry event: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByKind returns how many events of one kind have been journaled.
func (j *Journal) CountByKind(ctx context.Context, kind string) (int, error) {
	var count int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM telemetry_events WHERE kind = ?", kind,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s events: %w", kind, err)
	}
	return count, nil
}

// migrate runs pending journal migrations. Already-applied migrations
// (tracked in the _migrations table) are skipped.
func (j *Journal) migrate(ctx context.Context) error {
	if err := j.ensureMigrationsTable(ctx); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, m := range journalMigrations {
		var count int
		err := j.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM _migrations WHERE version = ?", m.version,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}
		if count > 0 {
			continue
		}

		if err := j.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
	}
	return nil
}

func (j *Journal) ensureMigrationsTable(ctx context.Context) error {
	var err error
	j.once.Do(func() {
		_, err = j.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS _migrations (
				version     INTEGER  PRIMARY KEY,
				description TEXT     NOT NULL,
				applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`)
	})
	return err
}

func (j *Journal) applyMigration(ctx context.Context, m migration) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, m.stmt); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO _migrations (version, description) VALUES (?, ?)",
		m.version, m.description,
	); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
