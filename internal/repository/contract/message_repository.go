package contract

import (
	"context"

	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/repository/specification"

	"github.com/google/uuid"
)

// UserMessageCounts is the aggregation the coverage scorer runs on: how many
// USER messages exist per category, and how many USER messages exist overall.
type UserMessageCounts struct {
	PerCategory map[string]int64
	TotalUser   int64
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	DeleteByIds(ctx context.Context, ids []uuid.UUID) error
	DeleteByAnalysisId(ctx context.Context, analysisId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// CountUserMessages runs the category group-by for one analysis.
	CountUserMessages(ctx context.Context, analysisId uuid.UUID) (*UserMessageCounts, error)
}
