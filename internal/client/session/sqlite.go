package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/adiwinata/fittrack/internal/client/migrations"
	"github.com/adiwinata/fittrack/internal/client/models"
)

// Persisted keys in the metadata table.
const (
	keyToken          = "token"
	keyUser           = "user"
	keyExpiresAt      = "expires_at"
	keyInstallationID = "installation_id"
)

// SQLiteStore keeps the session in a key-value metadata table in a local
// SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an already-opened database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Open opens (creating if needed) the client database at dsn, runs the
// embedded goose migrations, and mints an installation id on first open.
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, &StorageError{Op: "migrate", Err: err}
	}

	s := &SQLiteStore{db: db}
	if err := s.ensureInstallationID(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Load reads the persisted triple. Any read failure, partial record or
// undecodable profile resolves to "no session" semantics for the caller;
// read failures are still reported so the bootstrap can log them.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Session, error) {
	token, err := s.get(ctx, keyToken)
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	user, err := s.get(ctx, keyUser)
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	if len(token) == 0 || len(user) == 0 {
		return nil, nil
	}

	var profile models.Profile
	if err := json.Unmarshal(user, &profile); err != nil {
		return nil, &StorageError{Op: "decode", Err: err}
	}

	sess := &models.Session{Token: string(token), User: &profile}

	if raw, err := s.get(ctx, keyExpiresAt); err == nil && len(raw) > 0 {
		if t, err := time.Parse(time.RFC3339, string(raw)); err == nil {
			sess.ExpiresAt = &t
		}
	}
	return sess, nil
}

// Save writes token, user and expiry in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, sess *models.Session) error {
	if !sess.Valid() {
		return &StorageError{Op: "save", Err: errors.New("refusing to persist a partial session")}
	}

	user, err := json.Marshal(sess.User)
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	defer tx.Rollback()

	set := func(key string, value []byte) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO metadata (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		return err
	}

	if err := set(keyToken, []byte(sess.Token)); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	if err := set(keyUser, user); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	if sess.ExpiresAt != nil {
		if err := set(keyExpiresAt, []byte(sess.ExpiresAt.Format(time.RFC3339))); err != nil {
			return &StorageError{Op: "save", Err: err}
		}
	} else {
		if _, err := tx.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, keyExpiresAt); err != nil {
			return &StorageError{Op: "save", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}

// Clear removes the session keys. The installation id is deliberately kept:
// it identifies the device, not the account.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM metadata WHERE key IN (?, ?, ?)`, keyToken, keyUser, keyExpiresAt)
	if err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// InstallationID returns the stable per-device identifier.
func (s *SQLiteStore) InstallationID(ctx context.Context) (string, error) {
	id, err := s.get(ctx, keyInstallationID)
	if err != nil {
		return "", &StorageError{Op: "installation_id", Err: err}
	}
	return string(id), nil
}

func (s *SQLiteStore) ensureInstallationID(ctx context.Context) error {
	id, err := s.get(ctx, keyInstallationID)
	if err != nil {
		return &StorageError{Op: "installation_id", Err: err}
	}
	if len(id) > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)`, keyInstallationID, []byte(uuid.NewString()))
	if err != nil {
		return &StorageError{Op: "installation_id", Err: err}
	}
	return nil
}
