package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrBudgetExceeded signals the user has spent today's LLM token budget.
var ErrBudgetExceeded = fmt.Errorf("daily token budget exceeded")

// TokenBudget tracks per-user daily LLM token spend and rejects calls once
// the budget is gone.
type TokenBudget interface {
	// Allow reports whether the user still has budget left.
	Allow(ctx context.Context, userId uuid.UUID) error

	// Record adds spent tokens to the user's running total for today.
	Record(ctx context.Context, userId uuid.UUID, tokens int)
}

func dayKey(userId uuid.UUID) string {
	return fmt.Sprintf("token_budget:%s:%s", userId, time.Now().Format("2006-01-02"))
}

// MemoryBudget is the single-instance implementation, backed by an expiring
// in-memory cache.
type MemoryBudget struct {
	limit int
	cache *cache.Cache
}

func NewMemoryBudget(limit int) *MemoryBudget {
	// Entries expire a day after the counter stops moving; the date-scoped
	// key is what actually resets the budget at midnight.
	return &MemoryBudget{
		limit: limit,
		cache: cache.New(24*time.Hour, 1*time.Hour),
	}
}

func (b *MemoryBudget) Allow(ctx context.Context, userId uuid.UUID) error {
	if b.limit <= 0 {
		return nil
	}
	if spent, found := b.cache.Get(dayKey(userId)); found {
		if spent.(int) >= b.limit {
			return ErrBudgetExceeded
		}
	}
	return nil
}

func (b *MemoryBudget) Record(ctx context.Context, userId uuid.UUID, tokens int) {
	if tokens <= 0 {
		return
	}
	key := dayKey(userId)
	if _, err := b.cache.IncrementInt(key, tokens); err != nil {
		b.cache.Set(key, tokens, cache.DefaultExpiration)
	}
}

var _ TokenBudget = (*MemoryBudget)(nil)

// RedisBudget shares the counters across instances.
type RedisBudget struct {
	limit int
	rdb   *redis.Client
}

func NewRedisBudget(limit int, rdb *redis.Client) *RedisBudget {
	return &RedisBudget{
		limit: limit,
		rdb:   rdb,
	}
}

func (b *RedisBudget) Allow(ctx context.Context, userId uuid.UUID) error {
	if b.limit <= 0 {
		return nil
	}
	spent, err := b.rdb.Get(ctx, dayKey(userId)).Int()
	if err != nil {
		// Redis being down must not block the workflow.
		return nil
	}
	if spent >= b.limit {
		return ErrBudgetExceeded
	}
	return nil
}

func (b *RedisBudget) Record(ctx context.Context, userId uuid.UUID, tokens int) {
	if tokens <= 0 {
		return
	}
	key := dayKey(userId)
	pipe := b.rdb.TxPipeline()
	pipe.IncrBy(ctx, key, int64(tokens))
	pipe.Expire(ctx, key, 48*time.Hour)
	_, _ = pipe.Exec(ctx)
}

var _ TokenBudget = (*RedisBudget)(nil)
