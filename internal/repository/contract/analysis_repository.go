package contract

import (
	"context"
	"time"

	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *entity.Analysis) error
	Update(ctx context.Context, analysis *entity.Analysis) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Analysis, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Analysis, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// MarkStartedIfNot performs the atomic single-winner claim for the first
	// AI turn: one conditional UPDATE setting started_at where it is still
	// NULL. It returns true iff this caller won the claim.
	MarkStartedIfNot(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// Touch bumps updated_at without rewriting the row.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}
