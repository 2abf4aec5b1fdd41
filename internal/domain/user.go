// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"unicode/utf8"
)

const (
	MinUsernameLen = 2
	MaxUsernameLen = 20
)

var (
	ErrUsernameTooShort = errors.New("username too short")
	ErrUsernameTooLong  = errors.New("username too long")
)

// UserID is the transport-assigned connection id of the user.
type UserID string

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	RoomID   RoomID `json:"roomId"`
	Role     Role   `json:"role"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLen {
		return ErrUsernameTooShort
	}
	if n > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
