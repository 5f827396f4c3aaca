package revocations

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_CancelledContext(t *testing.T) {
	repo := NewMemoryRepository(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.Put(ctx, 1, "a", "tok", time.Minute), common.ErrStoreUnavailable)
	_, err := repo.Exists(ctx, 1, "a")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	_, err = repo.Remove(ctx, 1, "a")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.ErrorIs(t, repo.Discard(ctx, 1, "a"), common.ErrStoreUnavailable)
	_, err = repo.RemoveAll(ctx, 1)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestMemoryRepository_Len(t *testing.T) {
	clk := &manualClock{t: time.Unix(0, 0)}
	repo := NewMemoryRepository(clk.Now)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, 1, "a", "tok", time.Minute))
	require.NoError(t, repo.Put(ctx, 1, "b", "tok", time.Hour))
	assert.Equal(t, 2, repo.Len())

	clk.Advance(2 * time.Minute)
	assert.Equal(t, 1, repo.Len())
}
