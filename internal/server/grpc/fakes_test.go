package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type fakeUsers struct {
	registerResp  *models.User
	registerErr   error
	registerName  string
	registerLevel models.PermissionLevel

	loginResp *services.TokenPair
	loginErr  error

	refreshResp *services.TokenPair
	refreshErr  error

	logoutErr error

	logoutAllN     int
	logoutAllErr   error
	logoutAllActor models.Principal
	logoutAllUser  models.UserID

	authPrincipal *models.Principal
	authErr       error
	authToken     string

	user    *models.User
	userErr error
}

func (f *fakeUsers) Register(ctx context.Context, username, password string, level models.PermissionLevel) (*models.User, error) {
	f.registerName = username
	f.registerLevel = level
	return f.registerResp, f.registerErr
}

func (f *fakeUsers) Login(ctx context.Context, username, password string) (*services.TokenPair, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeUsers) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	return f.refreshResp, f.refreshErr
}

func (f *fakeUsers) Logout(ctx context.Context, refreshToken string) error {
	return f.logoutErr
}

func (f *fakeUsers) LogoutAll(ctx context.Context, actor models.Principal, userID models.UserID) (int, error) {
	f.logoutAllActor = actor
	f.logoutAllUser = userID
	return f.logoutAllN, f.logoutAllErr
}

func (f *fakeUsers) Authenticate(ctx context.Context, accessToken string) (*models.Principal, error) {
	f.authToken = accessToken
	return f.authPrincipal, f.authErr
}

func (f *fakeUsers) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	return f.user, f.userErr
}
