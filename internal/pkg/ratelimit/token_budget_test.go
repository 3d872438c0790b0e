package ratelimit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBudgetAllowsUnderLimit(t *testing.T) {
	b := NewMemoryBudget(100)
	userId := uuid.New()

	require.NoError(t, b.Allow(context.Background(), userId))
	b.Record(context.Background(), userId, 99)
	assert.NoError(t, b.Allow(context.Background(), userId))
}

func TestMemoryBudgetBlocksAtLimit(t *testing.T) {
	b := NewMemoryBudget(100)
	userId := uuid.New()

	b.Record(context.Background(), userId, 60)
	b.Record(context.Background(), userId, 40)

	err := b.Allow(context.Background(), userId)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
}

func TestMemoryBudgetIsPerUser(t *testing.T) {
	b := NewMemoryBudget(50)
	spender := uuid.New()
	other := uuid.New()

	b.Record(context.Background(), spender, 50)

	assert.ErrorIs(t, b.Allow(context.Background(), spender), ErrBudgetExceeded)
	assert.NoError(t, b.Allow(context.Background(), other))
}

func TestMemoryBudgetZeroLimitDisables(t *testing.T) {
	b := NewMemoryBudget(0)
	userId := uuid.New()

	b.Record(context.Background(), userId, 1_000_000)
	assert.NoError(t, b.Allow(context.Background(), userId))
}

func TestMemoryBudgetIgnoresNonPositiveSpend(t *testing.T) {
	b := NewMemoryBudget(10)
	userId := uuid.New()

	b.Record(context.Background(), userId, 0)
	b.Record(context.Background(), userId, -5)
	assert.NoError(t, b.Allow(context.Background(), userId))
}
