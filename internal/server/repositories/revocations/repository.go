// Package revocations stores the server-side record of every live refresh
// token together with a per-user index of their ids.
//
// A refresh token is honoured only while its record exists. The index may
// hold ids whose record is already gone; the reverse never happens.
package revocations

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// Put stores the record and adds tokenID to the subject's index.
	Put(ctx context.Context, subject models.UserID, tokenID, token string, ttl time.Duration) error
	// Exists reports whether a live record exists.
	Exists(ctx context.Context, subject models.UserID, tokenID string) (bool, error)
	// Remove deletes the record and its index entry. removed is true only
	// for the call that actually deleted the record.
	Remove(ctx context.Context, subject models.UserID, tokenID string) (removed bool, err error)
	// Discard drops tokenID from the index only.
	Discard(ctx context.Context, subject models.UserID, tokenID string) error
	// RemoveAll deletes every indexed record of subject and returns how many
	// records were actually deleted.
	RemoveAll(ctx context.Context, subject models.UserID) (int, error)
}

func recordKey(subject models.UserID, tokenID string) string {
	return fmt.Sprintf("refresh_token:%s:%s", subject, tokenID)
}

func indexKey(subject models.UserID) string {
	return fmt.Sprintf("user_tokens:%s", subject)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, op, err)
}
