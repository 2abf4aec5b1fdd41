package domain

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrInvalidRoomID   = errors.New("invalid room id")
	ErrPasswordTooLong = errors.New("password too long")
)

const MaxPasswordLen = 50

type RoomID string

// RoomSettings is created lazily on first access and dropped with the room.
type RoomSettings struct {
	CanvasLocked bool `json:"canvasLocked"`
}

// ParseRoomID accepts only the canonical 36 char form of a version 4 UUID, in any case.
func ParseRoomID(raw string) (RoomID, error) {
	if len(raw) != 36 {
		return "", ErrInvalidRoomID
	}
	id, err := uuid.Parse(raw)
	if err != nil || id.Version() != 4 || id.Variant() != uuid.RFC4122 {
		return "", ErrInvalidRoomID
	}
	return RoomID(raw), nil
}

// ValidatePassword bounds a room password. Empty means no password.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) > MaxPasswordLen {
		return ErrPasswordTooLong
	}
	return nil
}
