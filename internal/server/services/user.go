// Package services contains server-side business logic: UserService drives
// login, refresh, logout and authentication on top of TokenService.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/permissions"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// GeneratedPasswordLength is the length of generated superadmin passwords.
const GeneratedPasswordLength = 12

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	tokens      *TokenService
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher, tokens *TokenService, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		log:         logger.With("module", "user_service"),
	}
}

// Register creates a user with the given permission level.
func (s *UserService) Register(ctx context.Context, username, password string, level models.PermissionLevel) (*models.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", common.ErrMalformedCredential)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: empty password", common.ErrMalformedCredential)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{UserName: username, PasswordHash: hash, Permission: level})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	s.log.Info(ctx, "user registered", "user_id", u.ID, "permission", level.String())
	return u, nil
}

// Login verifies the password and issues a token pair. Unknown users and
// wrong passwords fail the same way and take about the same time.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, invalidCredentials()
		}
		s.log.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Error(ctx, "stored password hash is unusable", "user_id", user.ID, "error", err)
		return nil, invalidCredentials()
	}
	if !ok {
		return nil, invalidCredentials()
	}
	if user.Permission == models.Banned {
		return nil, common.ErrUserBanned
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh rotates a refresh token. Tokens of banned or deleted users are not rotated.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	v, err := s.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		s.logTokenFailure(ctx, "refresh rejected", err)
		return nil, err
	}

	if _, err := s.activeUser(ctx, v.Subject); err != nil {
		return nil, err
	}

	return s.tokens.Rotate(ctx, v)
}

// Logout revokes the given refresh token.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	v, err := s.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		s.logTokenFailure(ctx, "logout rejected", err)
		return err
	}
	return s.tokens.Revoke(ctx, v.Subject, v.TokenID)
}

// LogoutAll revokes every refresh token of userID on behalf of actor.
func (s *UserService) LogoutAll(ctx context.Context, actor models.Principal, userID models.UserID) (int, error) {
	target, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, common.ErrorNotFound
		}
		s.log.Error(ctx, "user lookup failed", "error", err)
		return 0, common.ErrorInternal
	}

	if err := permissions.AssertCanManage(actor, target.Principal()); err != nil {
		s.log.Warn(ctx, "logout-all denied", "actor_id", actor.ID, "target_id", userID)
		return 0, err
	}

	return s.tokens.RevokeAll(ctx, userID)
}

// Authenticate resolves an access token to the principal it was issued to.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.Principal, error) {
	id, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		s.logTokenFailure(ctx, "access token rejected", err)
		return nil, err
	}

	user, err := s.activeUser(ctx, id)
	if err != nil {
		return nil, err
	}
	p := user.Principal()
	return &p, nil
}

// GetUser returns the user with the given id.
func (s *UserService) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// EnsureSuperAdmin creates the superadmin account if it does not exist.
// When password is empty one is generated and returned so the caller can
// show it once; otherwise the returned string is empty.
func (s *UserService) EnsureSuperAdmin(ctx context.Context, username, password string) (generated string, err error) {
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		existing, err := repo.GetByUsername(ctx, username)
		if err == nil {
			s.log.Info(ctx, "superadmin present", "user_id", existing.ID)
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		if password == "" {
			if generated, err = auth.GenerateSecurityPassword(GeneratedPasswordLength); err != nil {
				return err
			}
			password = generated
		}
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return err
		}

		u, err := repo.Create(ctx, &models.User{UserName: username, PasswordHash: hash, Permission: models.SuperAdmin})
		if err != nil {
			return err
		}
		s.log.Info(ctx, "superadmin created", "user_id", u.ID, "username", username)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("seeding superadmin: %w", err)
	}
	return generated, nil
}

// activeUser loads id and rejects deleted and banned accounts.
func (s *UserService) activeUser(ctx context.Context, id models.UserID) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrorNotFound)
		}
		s.log.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if user.Permission == models.Banned {
		return nil, common.ErrUserBanned
	}
	return user, nil
}

func (s *UserService) logTokenFailure(ctx context.Context, msg string, err error) {
	if errors.Is(err, common.ErrStoreUnavailable) {
		s.log.Error(ctx, msg, "error", err)
		return
	}
	s.log.Info(ctx, msg, "kind", tokenErrorKind(err))
}

// tokenErrorKind names the precise verification failure for logs.
func tokenErrorKind(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return "expired"
	case errors.Is(err, common.ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, common.ErrTokenTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, common.ErrTokenMalformed):
		return "malformed"
	default:
		return "unknown"
	}
}

func invalidCredentials() error {
	return fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrInvalidCredentials)
}
