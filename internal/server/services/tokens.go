package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/revocations"
	"github.com/google/uuid"
)

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
}

// EffectKind names a store mutation performed while verifying a refresh token.
type EffectKind string

const (
	// EffectIndexDiscarded: no record was left, only the index entry was dropped.
	EffectIndexDiscarded EffectKind = "index_discarded"
	// EffectRecordRemoved: the token had expired, record and index entry were deleted.
	EffectRecordRemoved EffectKind = "record_removed"
)

type Effect struct {
	Kind    EffectKind
	Subject models.UserID
	TokenID string
}

// RefreshVerification describes a verified refresh token. It is also returned
// alongside expired and revoked errors so callers can see what was cleaned up.
type RefreshVerification struct {
	Subject   models.UserID
	TokenID   string
	ExpiresAt time.Time
	Effects   []Effect
}

// TokenService issues, verifies, rotates and revokes tokens. It keeps no
// mutable state of its own; refresh-token state lives in the revocation store.
type TokenService struct {
	codec        *auth.TokenCodec
	store        revocations.Repository
	accessTTL    time.Duration
	refreshTTL   time.Duration
	storeTimeout time.Duration
	now          func() time.Time
	newTokenID   func() string
	log          logging.Logger
}

type TokenServiceOption func(*TokenService)

// WithNowFunc overrides the clock used for issuing tokens.
func WithNowFunc(now func() time.Time) TokenServiceOption {
	return func(s *TokenService) { s.now = now }
}

// WithTokenIDFunc overrides refresh token id generation.
func WithTokenIDFunc(f func() string) TokenServiceOption {
	return func(s *TokenService) { s.newTokenID = f }
}

func NewTokenService(codec *auth.TokenCodec, store revocations.Repository, cfg *config.Config, logger logging.Logger, opts ...TokenServiceOption) *TokenService {
	s := &TokenService{
		codec:        codec,
		store:        store,
		accessTTL:    cfg.AccessTokenValidityDuration,
		refreshTTL:   cfg.RefreshTokenValidityDuration,
		storeTimeout: cfg.StoreTimeout,
		now:          codec.Now,
		newTokenID:   uuid.NewString,
		log:          logger.With("module", "token_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.accessTTL <= 0 {
		s.accessTTL = auth.DefaultAccessTokenTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = auth.DefaultRefreshTokenTTL
	}
	return s
}

// AccessTokenTTL is the lifetime of issued access tokens.
func (s *TokenService) AccessTokenTTL() time.Duration { return s.accessTTL }

func (s *TokenService) IssueAccessToken(subject models.UserID) (string, error) {
	return s.codec.SignAccess(subject, s.now(), s.accessTTL)
}

// IssueRefreshToken signs a refresh token with a fresh id and records it.
func (s *TokenService) IssueRefreshToken(ctx context.Context, subject models.UserID) (string, error) {
	tokenID := s.newTokenID()
	token, err := s.codec.SignRefresh(subject, tokenID, s.now(), s.refreshTTL)
	if err != nil {
		return "", err
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.store.Put(storeCtx, subject, tokenID, token, s.refreshTTL); err != nil {
		return "", storeUnavailable(err)
	}

	s.log.Debug(ctx, "refresh token issued", "user_id", subject, "jti", tokenID)
	return token, nil
}

// IssuePair issues a refresh token and an access token for subject.
func (s *TokenService) IssuePair(ctx context.Context, subject models.UserID) (*TokenPair, error) {
	refresh, err := s.IssueRefreshToken(ctx, subject)
	if err != nil {
		return nil, err
	}
	access, err := s.IssueAccessToken(subject)
	if err != nil {
		return nil, err
	}
	return s.pair(access, refresh), nil
}

// VerifyAccessToken checks signature, type and expiry. It does not consult
// the revocation store.
func (s *TokenService) VerifyAccessToken(token string) (models.UserID, error) {
	claims, err := s.codec.Parse(token, auth.TokenTypeAccess)
	if err != nil {
		return 0, unauthorized(err)
	}
	return claims.UserID()
}

// VerifyRefreshToken checks the token and that its record still exists.
//
// A missing record drops the stale index entry and fails as revoked. An
// expired token has its record and index entry removed and fails as expired.
// Cleanup failures are logged; they never change the returned error kind.
func (s *TokenService) VerifyRefreshToken(ctx context.Context, token string) (*RefreshVerification, error) {
	claims, parseErr := s.codec.Parse(token, auth.TokenTypeRefresh)
	if claims == nil {
		return nil, unauthorized(parseErr)
	}

	subject, err := claims.UserID()
	if err != nil {
		return nil, unauthorized(common.ErrTokenMalformed)
	}
	v := &RefreshVerification{Subject: subject, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}

	if errors.Is(parseErr, common.ErrTokenExpired) {
		storeCtx, cancel := s.storeContext(ctx)
		defer cancel()
		removed, err := s.store.Remove(storeCtx, subject, v.TokenID)
		switch {
		case err != nil:
			s.log.Warn(ctx, "expired refresh token cleanup failed", "user_id", subject, "jti", v.TokenID, "error", err)
		case removed:
			v.Effects = append(v.Effects, Effect{Kind: EffectRecordRemoved, Subject: subject, TokenID: v.TokenID})
		default:
			v.Effects = append(v.Effects, Effect{Kind: EffectIndexDiscarded, Subject: subject, TokenID: v.TokenID})
		}
		return v, unauthorized(common.ErrTokenExpired)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	exists, err := s.store.Exists(storeCtx, subject, v.TokenID)
	if err != nil {
		return v, storeUnavailable(err)
	}
	if !exists {
		if err := s.store.Discard(storeCtx, subject, v.TokenID); err != nil {
			s.log.Warn(ctx, "stale index entry cleanup failed", "user_id", subject, "jti", v.TokenID, "error", err)
		} else {
			v.Effects = append(v.Effects, Effect{Kind: EffectIndexDiscarded, Subject: subject, TokenID: v.TokenID})
		}
		return v, unauthorized(common.ErrTokenRevoked)
	}

	return v, nil
}

// RotateRefreshToken exchanges a valid refresh token for a new pair. The old
// token is single-use: of several concurrent rotations at most one succeeds.
func (s *TokenService) RotateRefreshToken(ctx context.Context, oldToken string) (*TokenPair, error) {
	v, err := s.VerifyRefreshToken(ctx, oldToken)
	if err != nil {
		return nil, err
	}
	return s.Rotate(ctx, v)
}

// Rotate consumes an already verified refresh token and issues a new pair.
// If the record is gone by the time it is removed the call fails as revoked.
//
// When issuing the new refresh token fails after the old one was consumed,
// the user has to log in again.
func (s *TokenService) Rotate(ctx context.Context, v *RefreshVerification) (*TokenPair, error) {
	storeCtx, cancel := s.storeContext(ctx)
	removed, err := s.store.Remove(storeCtx, v.Subject, v.TokenID)
	cancel()
	if err != nil {
		return nil, storeUnavailable(err)
	}
	if !removed {
		s.log.Info(ctx, "refresh token already consumed", "user_id", v.Subject, "jti", v.TokenID)
		return nil, unauthorized(common.ErrTokenRevoked)
	}

	pair, err := s.IssuePair(ctx, v.Subject)
	if err != nil {
		s.log.Error(ctx, "refresh token rotation failed after consuming old token", "user_id", v.Subject, "jti", v.TokenID, "error", err)
		return nil, err
	}
	return pair, nil
}

// Revoke deletes a single refresh token record. Revoking an unknown token is not an error.
func (s *TokenService) Revoke(ctx context.Context, subject models.UserID, tokenID string) error {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if _, err := s.store.Remove(storeCtx, subject, tokenID); err != nil {
		return storeUnavailable(err)
	}
	return nil
}

// RevokeAll deletes every refresh token of subject and returns how many were
// live. Access tokens already issued stay valid until they expire.
func (s *TokenService) RevokeAll(ctx context.Context, subject models.UserID) (int, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	n, err := s.store.RemoveAll(storeCtx, subject)
	if err != nil {
		return 0, storeUnavailable(err)
	}
	s.log.Info(ctx, "refresh tokens revoked", "user_id", subject, "count", n)
	return n, nil
}

func (s *TokenService) pair(access, refresh string) *TokenPair {
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.accessTTL,
	}
}

func (s *TokenService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func unauthorized(err error) error {
	return fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
}

func storeUnavailable(err error) error {
	if errors.Is(err, common.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
}
