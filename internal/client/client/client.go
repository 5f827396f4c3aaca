package client

import (
	"context"
)

// Tokens is the pair a client holds after logging in.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Identity describes the caller as seen by the server.
type Identity struct {
	UserID     int64
	Username   string
	Permission string
}

type Client interface {
	Close() error
	Register(ctx context.Context, username, password string) (int64, error)
	Login(ctx context.Context, username, password string) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context, userID int64) (int, error)
	WhoAmI(ctx context.Context) (*Identity, error)
	Ping(ctx context.Context) error
	Tokens() Tokens
	SetTokens(t Tokens)
}
