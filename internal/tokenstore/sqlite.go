package tokenstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the only durable local state the workflow keeps: the bearer
// token and a small cached user profile, in a single-row sqlite table.
// It implements client.TokenSource.
type Store struct {
	db *sql.DB
}

const accessTokenKey = "accessToken"

func Open(dbPath string) (*Store, error) {
	const op = "tokenstore.Open"

	if dbPath == "" {
		return nil, fmt.Errorf("%s: empty database path", op)
	}

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS profile (
			account_id INTEGER PRIMARY KEY,
			fullname   TEXT NOT NULL DEFAULT '',
			role       TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Token returns the stored bearer token, or "" when none is saved. The
// client maps "" to its no-token error before any network call.
func (s *Store) Token(ctx context.Context) (string, error) {
	const op = "tokenstore.Token"

	var token string

	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=?`, accessTokenKey).Scan(&token)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	const op = "tokenstore.SetToken"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value=excluded.value`,
		accessTokenKey, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) ClearToken(ctx context.Context) error {
	const op = "tokenstore.ClearToken"

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key=?`, accessTokenKey)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

type Profile struct {
	AccountID int64
	Fullname  string
	// Role is a display hint only. Authorization is enforced server-side;
	// nothing here is a security boundary.
	Role string
}

func (s *Store) Profile(ctx context.Context) (*Profile, error) {
	const op = "tokenstore.Profile"

	var p Profile

	err := s.db.QueryRowContext(ctx,
		`SELECT account_id, fullname, role FROM profile LIMIT 1`).
		Scan(&p.AccountID, &p.Fullname, &p.Role)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &p, nil
}

func (s *Store) SetProfile(ctx context.Context, p *Profile) error {
	const op = "tokenstore.SetProfile"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM profile`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profile (account_id, fullname, role) VALUES (?, ?, ?)`,
		p.AccountID, p.Fullname, p.Role)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
