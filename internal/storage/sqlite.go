// Package storage keeps a SQLite log of remote view load attempts.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// LoadRecord is one attempt to load a remote manifest and module.
type LoadRecord struct {
	ID       int64     `json:"id"`
	Remote   string    `json:"remote"`
	URL      string    `json:"url"`
	OK       bool      `json:"ok"`
	Kind     string    `json:"kind,omitempty"`
	Error    string    `json:"error,omitempty"`
	Duration int64     `json:"durationMs"`
	Status   int       `json:"status,omitempty"`
	Protocol string    `json:"protocol,omitempty"`
	TLS      string    `json:"tls,omitempty"`
	ServerIP string    `json:"serverIp,omitempty"`
	Created  time.Time `json:"createdAt"`
}

// Database wraps a SQLite connection with thread-safe access.
type Database struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens the database at path and creates the schema. ":memory:" keeps the
// log for the process lifetime only.
func New(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS remote_loads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			remote TEXT NOT NULL,
			url TEXT NOT NULL,
			ok INTEGER NOT NULL,
			kind TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			status INTEGER NOT NULL DEFAULT 0,
			protocol TEXT NOT NULL DEFAULT '',
			tls TEXT NOT NULL DEFAULT '',
			server_ip TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create remote_loads table: %w", err)
	}

	_, err = db.Exec("CREATE INDEX IF NOT EXISTS idx_remote_loads_remote ON remote_loads(remote)")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping checks the connection.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Record appends a load attempt. A zero Created is stamped with the current time.
func (d *Database) Record(ctx context.Context, rec LoadRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rec.Created.IsZero() {
		rec.Created = time.Now()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO remote_loads (remote, url, ok, kind, error, duration_ms, status, protocol, tls, server_ip, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Remote, rec.URL, rec.OK, rec.Kind, rec.Error, rec.Duration, rec.Status, rec.Protocol, rec.TLS, rec.ServerIP, rec.Created.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert error: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. An empty remote selects all.
func (d *Database) Recent(ctx context.Context, remote string, limit int) ([]LoadRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, remote, url, ok, kind, error, duration_ms, status, protocol, tls, server_ip, created_at
		FROM remote_loads
		WHERE (? = '' OR remote = ?)
		ORDER BY id DESC
		LIMIT ?
	`, remote, remote, limit)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	records := []LoadRecord{}
	for rows.Next() {
		var rec LoadRecord
		var created int64
		if err := rows.Scan(&rec.ID, &rec.Remote, &rec.URL, &rec.OK, &rec.Kind, &rec.Error,
			&rec.Duration, &rec.Status, &rec.Protocol, &rec.TLS, &rec.ServerIP, &created); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		rec.Created = time.UnixMilli(created)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}

// Clear removes every record of remote.
func (d *Database) Clear(ctx context.Context, remote string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.db.ExecContext(ctx, "DELETE FROM remote_loads WHERE remote = ?", remote); err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	return nil
}
