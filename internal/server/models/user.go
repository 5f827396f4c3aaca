// Package models defines server-side data models persisted in the database.
package models

import (
	"strconv"
	"time"
)

// UserID identifies a user. It is rendered as a decimal string in token subjects.
type UserID int64

func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID parses the decimal form produced by String.
func ParseUserID(s string) (UserID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(v), nil
}

type User struct {
	ID           UserID
	UserName     string
	PasswordHash string
	Permission   PermissionLevel
	CreatedAt    time.Time
}

// Principal is the identity/authority pair the permission evaluator works on.
type Principal struct {
	ID    UserID
	Level PermissionLevel
}

func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Level: u.Permission}
}
