package models

import (
	"fmt"
	"strings"
)

// PermissionLevel is a totally ordered authority rank.
type PermissionLevel int

const (
	Banned     PermissionLevel = -1
	Standard   PermissionLevel = 0
	Admin      PermissionLevel = 1
	SuperAdmin PermissionLevel = 2
)

func (p PermissionLevel) String() string {
	switch p {
	case Banned:
		return "banned"
	case Standard:
		return "standard"
	case Admin:
		return "admin"
	case SuperAdmin:
		return "superadmin"
	default:
		return fmt.Sprintf("level(%d)", int(p))
	}
}

// Valid reports whether p is one of the defined levels.
func (p PermissionLevel) Valid() bool {
	return p >= Banned && p <= SuperAdmin
}

func ParsePermissionLevel(s string) (PermissionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "banned":
		return Banned, nil
	case "standard", "user":
		return Standard, nil
	case "admin":
		return Admin, nil
	case "superadmin", "super_admin":
		return SuperAdmin, nil
	}
	return Standard, fmt.Errorf("unknown permission level %q", s)
}
