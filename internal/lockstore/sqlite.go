package lockstore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/maheshrc27/storepost/internal/composer"
	_ "modernc.org/sqlite"
)

// SQLite is a single-file store for deployments without Postgres.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS generation_defaults (
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		locked BOOLEAN NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, name)
	);
	`)
	return err
}

func (s *SQLite) Load(ctx context.Context, userID int64) (map[string]composer.StoredParameter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value, locked FROM generation_defaults WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]composer.StoredParameter)
	for rows.Next() {
		var name string
		var p composer.StoredParameter
		if err := rows.Scan(&name, &p.Value, &p.Locked); err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, rows.Err()
}

func (s *SQLite) Save(ctx context.Context, userID int64, name string, p composer.StoredParameter) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_defaults (user_id, name, value, locked, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, name) DO UPDATE SET
			value = excluded.value,
			locked = excluded.locked,
			updated_at = excluded.updated_at
	`, userID, name, p.Value, p.Locked, time.Now().UTC())
	return err
}
