package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"propertychat/internal/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store persists browser profile identities and search history. It runs on
// either Postgres or SQLite; queries are written with ? and rebound per driver.
type Store struct {
	db    *sqlx.DB
	newID func() string
}

// NewStore connects to the database and creates the schema if needed
func NewStore(driver, dsn string, maxConn int) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// SQLite serializes writers anyway
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(maxConn)
		db.SetMaxIdleConns(maxConn / 2)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(2 * time.Minute)
	}

	s := &Store{db: db, newID: uuid.NewString}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS user_profiles (
			profile_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS search_logs (
			search_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			source TEXT NOT NULL,
			query TEXT NOT NULL,
			result_count INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_logs_user ON search_logs (user_id, created_at)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ResolveUserID returns the user id bound to a browser profile, binding a
// freshly generated one the first time the profile is seen.
func (s *Store) ResolveUserID(ctx context.Context, profileID string) (string, error) {
	userID, err := s.lookupUserID(ctx, profileID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to look up profile: %w", err)
	}

	insert := s.db.Rebind(`
		INSERT INTO user_profiles (profile_id, user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (profile_id) DO NOTHING
	`)
	if _, err := s.db.ExecContext(ctx, insert, profileID, s.newID(), time.Now().UTC()); err != nil {
		return "", fmt.Errorf("failed to create profile: %w", err)
	}

	// a concurrent insert may have won, so read back whichever id is stored
	userID, err = s.lookupUserID(ctx, profileID)
	if err != nil {
		return "", fmt.Errorf("failed to read back profile: %w", err)
	}
	return userID, nil
}

func (s *Store) lookupUserID(ctx context.Context, profileID string) (string, error) {
	var userID string
	query := s.db.Rebind(`SELECT user_id FROM user_profiles WHERE profile_id = ?`)
	err := s.db.GetContext(ctx, &userID, query, profileID)
	return userID, err
}

// LogSearch records a committed search
func (s *Store) LogSearch(ctx context.Context, entry model.SearchLogEntry) error {
	if entry.ID == "" {
		entry.ID = s.newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO search_logs (search_id, user_id, session_id, source, query, result_count, created_at)
		VALUES (:search_id, :user_id, :session_id, :source, :query, :result_count, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

// RecentSearches returns a user's most recent searches, newest first
func (s *Store) RecentSearches(ctx context.Context, userID string, limit int) ([]model.SearchLogEntry, error) {
	query := s.db.Rebind(`
		SELECT search_id, user_id, session_id, source, query, result_count, created_at
		FROM search_logs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`)

	entries := []model.SearchLogEntry{}
	if err := s.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list searches: %w", err)
	}
	return entries, nil
}
