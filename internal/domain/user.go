// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUserNotFound    = errors.New("user not found")
)

type UserID string

type User struct {
	ID        UserID   `json:"user_id"`
	Username  string   `json:"user_name"`
	Favorites []string `json:"favorite_rooms"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(username string) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	id := UserID(uuid.NewString())
	return &User{ID: id, Username: username, Favorites: []string{}}, nil
}

func (u *User) SetUsername(username string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	u.Username = username
	return nil
}

// AddFavorites merges favs into the user's favorites, keeping them unique.
func (u *User) AddFavorites(favs ...string) {
	seen := make(map[string]struct{}, len(u.Favorites))
	for _, f := range u.Favorites {
		seen[f] = struct{}{}
	}
	for _, f := range favs {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		u.Favorites = append(u.Favorites, f)
	}
}

func validateUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
