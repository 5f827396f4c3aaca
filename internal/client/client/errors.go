package client

import "errors"

var (
	ErrUnavailable      = errors.New("server unavailable")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrAlreadyExists    = errors.New("user already exists")
	ErrInvalidInput     = errors.New("invalid username or password")
)
