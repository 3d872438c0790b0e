package guard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/pkg/logger"
	"ai-reqanalyzer-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAnalysis(t *testing.T, uow *memory.UnitOfWork) *entity.Analysis {
	t.Helper()
	analysis := &entity.Analysis{
		Id:     uuid.New(),
		UserId: uuid.New(),
		Title:  "payments epic",
		Status: constant.StatusInProgress,
	}
	require.NoError(t, uow.Analyses.Create(context.Background(), analysis))
	return analysis
}

func TestAcquireFirstCallerWins(t *testing.T) {
	uow := memory.NewUnitOfWork()
	analysis := seedAnalysis(t, uow)
	g := NewStartGuard(logger.NewNopLogger())

	acquired, got, err := g.Acquire(context.Background(), uow, analysis.Id)
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NotNil(t, got)
	assert.True(t, got.Started())

	acquired, got, err = g.Acquire(context.Background(), uow, analysis.Id)
	require.NoError(t, err)
	assert.False(t, acquired, "a second claim on the same analysis must lose")
	assert.True(t, got.Started())
}

func TestAcquireSingleWinnerUnderContention(t *testing.T) {
	uow := memory.NewUnitOfWork()
	analysis := seedAnalysis(t, uow)
	g := NewStartGuard(logger.NewNopLogger())

	const callers = 32
	var winners int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			acquired, _, err := g.Acquire(context.Background(), uow, analysis.Id)
			assert.NoError(t, err)
			if acquired {
				atomic.AddInt64(&winners, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), winners)
}

func TestAcquireClaimFailureDegradesToLoss(t *testing.T) {
	uow := memory.NewUnitOfWork()
	analysis := seedAnalysis(t, uow)
	g := NewStartGuard(logger.NewNopLogger())

	uow.Analyses.MarkStartedErr = errors.New("deadlock detected")

	acquired, got, err := g.Acquire(context.Background(), uow, analysis.Id)
	require.NoError(t, err)
	assert.False(t, acquired, "a failed claim must never look like a win")
	require.NotNil(t, got)
	assert.False(t, got.Started())
}

func TestAcquireReportsReReadFailure(t *testing.T) {
	uow := memory.NewUnitOfWork()
	analysis := seedAnalysis(t, uow)
	g := NewStartGuard(logger.NewNopLogger())

	uow.Analyses.FindOneErr = errors.New("connection lost")

	acquired, got, err := g.Acquire(context.Background(), uow, analysis.Id)
	require.Error(t, err)
	assert.True(t, acquired, "the claim itself stood")
	assert.Nil(t, got)
}
