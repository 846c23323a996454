package domain

import (
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const MaxRoomNameLen = 64

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
	ErrRoomNameInvalid = errors.New("room name contains '/', '?' or whitespace")

	ErrTooManyRooms = errors.New("too many rooms")
	ErrNameTaken    = errors.New("room name already taken")
	ErrRoomNotFound = errors.New("room not found")
	ErrNotOwner     = errors.New("caller is not the room owner")
)

type (
	RoomName string
	RoomID   string
	OwnerID  string
)

// Room is the immutable identity of a chat room.
// Equality for uniqueness purposes is by name, case-insensitively; the ID is
// the only stable reference for deletion.
type Room struct {
	ID    RoomID   `json:"id"`
	Name  RoomName `json:"name"`
	Owner OwnerID  `json:"-"`
}

// NewRoom validates the name and assigns a fresh id.
func NewRoom(name string, owner string) (*Room, error) {
	if err := ValidateRoomName(name); err != nil {
		return nil, err
	}
	return &Room{
		ID:    RoomID(uuid.NewString()),
		Name:  RoomName(name),
		Owner: OwnerID(owner),
	}, nil
}

// ValidateRoomName rejects names that could not be routed as a single path segment.
func ValidateRoomName(name string) error {
	if len(name) == 0 {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return ErrRoomNameTooLong
	}
	if strings.ContainsAny(name, "/?") || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return ErrRoomNameInvalid
	}
	return nil
}

// SameName reports whether the room collides with name for uniqueness checks.
func (r *Room) SameName(name RoomName) bool {
	return strings.EqualFold(string(r.Name), string(name))
}

func (r *Room) IsOwner(caller OwnerID) bool {
	return r.Owner == caller
}
