package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profile (
			id INTEGER PRIMARY KEY CHECK(id = 1),
			username TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			saved_ts TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS activity (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			line TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveProfile replaces the single profile row. Only identity fields are
// stored; tokens stay in memory.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p Profile) error {
	username := strings.TrimSpace(p.Username)
	if username == "" {
		return fmt.Errorf("save profile: empty username")
	}
	savedTS := p.SavedTS
	if savedTS.IsZero() {
		savedTS = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile(id, username, display_name, role, saved_ts)
		VALUES(1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			role = excluded.role,
			saved_ts = excluded.saved_ts
	`, username, p.DisplayName, p.Role, savedTS.UTC().Format(timeLayout))
	return err
}

// LoadProfile returns nil with no error when no profile has been saved.
func (s *SQLiteStore) LoadProfile(ctx context.Context) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT username, display_name, role, saved_ts FROM profile WHERE id = 1
	`)
	var (
		out        Profile
		savedTSRaw string
	)
	if err := row.Scan(&out.Username, &out.DisplayName, &out.Role, &savedTSRaw); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if t, err := time.Parse(timeLayout, savedTSRaw); err == nil {
		out.SavedTS = t
	}
	return &out, nil
}

func (s *SQLiteStore) ClearProfile(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM profile WHERE id = 1`)
	return err
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) AppendActivity(ctx context.Context, ts time.Time, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity(ts, line) VALUES(?, ?)`,
		ts.UTC().Format(timeLayout), line)
	return err
}

// RecentActivity returns the newest entries first.
func (s *SQLiteStore) RecentActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, line FROM activity ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ActivityEntry
	for rows.Next() {
		var (
			tsRaw string
			entry ActivityEntry
		)
		if err := rows.Scan(&tsRaw, &entry.Line); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeLayout, tsRaw); err == nil {
			entry.TS = t
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05Z07:00"
