package guard

import (
	"context"
	"time"

	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/pkg/logger"
	"ai-reqanalyzer-be/internal/repository/specification"
	"ai-reqanalyzer-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// StartGuard hands out the single-winner claim that gates the first AI turn
// of an analysis. It rides on the store's atomic predicate update, so two
// racing callers can never both acquire: the UPDATE's affected-row count
// decides, not a prior read.
type StartGuard struct {
	logger logger.ILogger
}

func NewStartGuard(log logger.ILogger) *StartGuard {
	return &StartGuard{logger: log}
}

// Acquire attempts the claim. acquired == true means this caller must run the
// first LLM generation; acquired == false means someone else already has, and
// the returned analysis is the freshest readable state. Store failures
// degrade to non-acquisition: never risk a duplicate LLM invocation.
func (g *StartGuard) Acquire(ctx context.Context, uow unitofwork.UnitOfWork, analysisId uuid.UUID) (bool, *entity.Analysis, error) {
	repo := uow.AnalysisRepository()

	acquired, err := repo.MarkStartedIfNot(ctx, analysisId, time.Now())
	if err != nil {
		g.logger.Error("StartGuard", "Conditional start claim failed, treating as non-acquisition", map[string]interface{}{
			"analysis_id": analysisId,
			"error":       err.Error(),
		})
		acquired = false
	}

	analysis, readErr := repo.FindOne(ctx, specification.ByID{ID: analysisId})
	if readErr != nil {
		// Best-effort: the claim outcome stands even if the re-read fails.
		g.logger.Error("StartGuard", "Re-read after start claim failed", map[string]interface{}{
			"analysis_id": analysisId,
			"error":       readErr.Error(),
		})
		return acquired, nil, readErr
	}

	return acquired, analysis, nil
}
