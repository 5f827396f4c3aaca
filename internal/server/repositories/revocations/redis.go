package revocations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps records as string keys with a TTL and the index as a set.
// Record and index writes go out in one MULTI/EXEC.
type RedisRepository struct {
	redis redis.UniversalClient
}

func NewRedisRepository(client redis.UniversalClient) *RedisRepository {
	return &RedisRepository{redis: client}
}

func (r *RedisRepository) Put(ctx context.Context, subject models.UserID, tokenID, token string, ttl time.Duration) error {
	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, recordKey(subject, tokenID), token, ttl)
	pipe.SAdd(ctx, indexKey(subject), tokenID)
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (r *RedisRepository) Exists(ctx context.Context, subject models.UserID, tokenID string) (bool, error) {
	n, err := r.redis.Exists(ctx, recordKey(subject, tokenID)).Result()
	if err != nil {
		return false, unavailable("exists", err)
	}
	return n == 1, nil
}

func (r *RedisRepository) Remove(ctx context.Context, subject models.UserID, tokenID string) (bool, error) {
	pipe := r.redis.TxPipeline()
	del := pipe.Del(ctx, recordKey(subject, tokenID))
	pipe.SRem(ctx, indexKey(subject), tokenID)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, unavailable("remove", err)
	}
	return del.Val() == 1, nil
}

func (r *RedisRepository) Discard(ctx context.Context, subject models.UserID, tokenID string) error {
	if err := r.redis.SRem(ctx, indexKey(subject), tokenID).Err(); err != nil {
		return unavailable("discard", err)
	}
	return nil
}

// RemoveAll removes exactly the ids it enumerated from the index, so a token
// issued while it runs keeps its index entry.
func (r *RedisRepository) RemoveAll(ctx context.Context, subject models.UserID) (int, error) {
	ids, err := r.redis.SMembers(ctx, indexKey(subject)).Result()
	if err != nil {
		return 0, unavailable("remove all", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := r.redis.TxPipeline()
	dels := make([]*redis.IntCmd, 0, len(ids))
	members := make([]any, 0, len(ids))
	for _, id := range ids {
		dels = append(dels, pipe.Del(ctx, recordKey(subject, id)))
		members = append(members, id)
	}
	pipe.SRem(ctx, indexKey(subject), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, unavailable("remove all", err)
	}

	removed := 0
	for _, d := range dels {
		removed += int(d.Val())
	}
	return removed, nil
}
