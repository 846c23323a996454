// Package store persists registered users and their favorite rooms in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkeye/Chat/internal/domain"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// UserStore handles SQLite operations for users and favorites.
type UserStore struct {
	db *sql.DB
}

// OpenUserStore opens (or creates) the database at path. ":memory:" keeps
// everything in process.
func OpenUserStore(path string) (*UserStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &UserStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	log.Info().Str("module", "store").Str("path", path).Msg("user store ready")
	return s, nil
}

func (s *UserStore) Close() error {
	return s.db.Close()
}

func (s *UserStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		user_id TEXT UNIQUE NOT NULL,
		user_name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS favorites (
		id INTEGER PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		UNIQUE (user_id, name),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateUser assigns a fresh id and stores the user.
func (s *UserStore) CreateUser(ctx context.Context, username string) (*domain.User, error) {
	u, err := domain.NewUser(username)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO users (user_id, user_name) VALUES (?, ?)", string(u.ID), u.Username); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	log.Info().Str("module", "store").Str("user_id", string(u.ID)).Msg("user created")
	return u, nil
}

// GetUser loads the user and its favorites.
func (s *UserStore) GetUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	u := &domain.User{ID: id, Favorites: []string{}}
	err := s.db.QueryRowContext(ctx,
		"SELECT user_name FROM users WHERE user_id = ?", string(id)).Scan(&u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM favorites WHERE user_id = ? ORDER BY id", string(id))
	if err != nil {
		return nil, fmt.Errorf("select favorites: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		u.Favorites = append(u.Favorites, name)
	}
	return u, rows.Err()
}

// RenameUser changes the stored user name.
func (s *UserStore) RenameUser(ctx context.Context, id domain.UserID, username string) (*domain.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.SetUsername(username); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE users SET user_name = ? WHERE user_id = ?", u.Username, string(id)); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (s *UserStore) DeleteUser(ctx context.Context, id domain.UserID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE user_id = ?", string(id))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrUserNotFound
	}
	log.Info().Str("module", "store").Str("user_id", string(id)).Msg("user deleted")
	return nil
}

// AddFavorites adds names to the user's favorites; duplicates are ignored.
func (s *UserStore) AddFavorites(ctx context.Context, id domain.UserID, names []string) (*domain.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	u.AddFavorites(names...)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, name := range u.Favorites {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO favorites (user_id, name) VALUES (?, ?)", string(id), name); err != nil {
			return nil, fmt.Errorf("insert favorite: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return u, nil
}
