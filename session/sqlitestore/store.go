// Package sqlitestore persists the session in a local SQLite file so that it
// survives process restarts.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/jrsteele09/go-tareas-client/identity"
	"github.com/jrsteele09/go-tareas-client/session"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	_ "modernc.org/sqlite"
)

var _ session.Store = (*Store)(nil)

// Store keeps the session fields as rows of a key/value table under the
// fixed session keys.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.Open] create db dir")
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.Open] open sqlite")
	}
	// A single connection serialises writers; sqlite would otherwise return SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS session_kv (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(err, "[Store.ensureSchema] create session_kv table")
	}
	return nil
}

func (s *Store) Set(ctx context.Context, sess *session.Session) error {
	values := map[string]string{
		session.KeyAccessToken:  sess.AccessToken(),
		session.KeyRefreshToken: sess.RefreshToken(),
	}
	if exp := sess.ExpiresAt(); !exp.IsZero() {
		values[session.KeyExpiresAt] = exp.UTC().Format(time.RFC3339Nano)
	}
	if sess != nil && sess.Profile != nil {
		raw, err := json.Marshal(sess.Profile)
		if err != nil {
			return errors.Wrap(err, "[Store.Set] marshal profile")
		}
		values[session.KeyProfile] = string(raw)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_kv`); err != nil {
			return errors.Wrap(err, "[Store.Set] reset session")
		}
		return upsert(ctx, tx, values)
	})
}

func (s *Store) SetToken(ctx context.Context, previousRefresh string, token *oauth2.Token) error {
	values := map[string]string{
		session.KeyAccessToken:  token.AccessToken,
		session.KeyRefreshToken: token.RefreshToken,
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT value FROM session_kv WHERE key = ?`, session.KeyRefreshToken).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return session.ErrSessionChanged
		}
		if err != nil {
			return errors.Wrap(err, "[Store.SetToken] read refresh token")
		}
		if current != previousRefresh {
			return session.ErrSessionChanged
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM session_kv WHERE key IN (?, ?, ?)`,
			session.KeyAccessToken, session.KeyRefreshToken, session.KeyExpiresAt); err != nil {
			return errors.Wrap(err, "[Store.SetToken] reset tokens")
		}
		if !token.Expiry.IsZero() {
			values[session.KeyExpiresAt] = token.Expiry.UTC().Format(time.RFC3339Nano)
		}
		return upsert(ctx, tx, values)
	})
}

func (s *Store) Get(ctx context.Context) (*session.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session_kv`)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Get] query session")
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errors.Wrap(err, "[Store.Get] scan session")
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[Store.Get] iterate session")
	}
	if len(values) == 0 {
		return nil, nil
	}

	var expiresAt time.Time
	if raw := values[session.KeyExpiresAt]; raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			expiresAt = t
		}
	}

	var profile *identity.UserProfile
	if raw := values[session.KeyProfile]; raw != "" {
		profile = &identity.UserProfile{}
		if err := json.Unmarshal([]byte(raw), profile); err != nil {
			return nil, errors.Wrap(err, "[Store.Get] decode profile")
		}
	}

	return session.New(values[session.KeyAccessToken], values[session.KeyRefreshToken], expiresAt, profile), nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_kv`); err != nil {
		return errors.Wrap(err, "[Store.Clear] clear session")
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "[Store.inTx] begin tx")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "[Store.inTx] commit tx")
	}
	return nil
}

func upsert(ctx context.Context, tx *sql.Tx, values map[string]string) error {
	const stmt = `
INSERT INTO session_kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value;
`
	for k, v := range values {
		if v == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt, k, v); err != nil {
			return errors.Wrapf(err, "[upsert] %s", k)
		}
	}
	return nil
}
