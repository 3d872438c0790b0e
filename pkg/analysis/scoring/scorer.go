package scoring

import (
	"context"
	"math"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Weights assign each scored category its expected share of the conversation.
// Categories outside this map contribute to totalUser only.
var Weights = map[constant.QuestionCategory]float64{
	constant.CategoryFunctionalRequirements:    0.30,
	constant.CategoryNonFunctionalRequirements: 0.20,
	constant.CategoryBusinessRules:             0.25,
	constant.CategoryAcceptanceCriteria:        0.25,
}

// Score is the completeness signal: an overall 0-100 value plus the
// per-category coverages it was averaged from.
type Score struct {
	Overall     int
	PerCategory map[constant.QuestionCategory]float64
}

// Scorer computes coverage from the message history. It never fails the
// workflow: absent data scores zero.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Compute runs the canonical, aggregation-query-based calculation.
func (s *Scorer) Compute(ctx context.Context, uow unitofwork.UnitOfWork, analysisId uuid.UUID) (*Score, error) {
	counts, err := uow.MessageRepository().CountUserMessages(ctx, analysisId)
	if err != nil {
		return nil, err
	}

	perCategory := make(map[constant.QuestionCategory]int64, len(Weights))
	for category := range Weights {
		perCategory[category] = counts.PerCategory[string(category)]
	}
	return scoreFromCounts(perCategory, counts.TotalUser), nil
}

// ComputeInMemory scores an already-loaded history. It must agree with
// Compute for the same data; the query path stays the source of truth.
func ComputeInMemory(messages []*entity.Message) *Score {
	perCategory := make(map[constant.QuestionCategory]int64, len(Weights))
	var totalUser int64
	for _, m := range messages {
		if m.Role != constant.RoleUser {
			continue
		}
		totalUser++
		if m.Category == nil {
			continue
		}
		if _, scored := Weights[*m.Category]; scored {
			perCategory[*m.Category]++
		}
	}
	return scoreFromCounts(perCategory, totalUser)
}

func scoreFromCounts(perCategory map[constant.QuestionCategory]int64, totalUser int64) *Score {
	coverages := make(map[constant.QuestionCategory]float64, len(Weights))

	if totalUser == 0 {
		for category := range Weights {
			coverages[category] = 0
		}
		return &Score{Overall: 0, PerCategory: coverages}
	}

	var sum float64
	for category, weight := range Weights {
		expected := math.Max(1, float64(totalUser)*weight)
		coverage := float64(perCategory[category]) / expected * 100
		coverage = math.Min(100, math.Max(0, coverage))
		coverages[category] = coverage
		sum += coverage
	}

	overall := int(math.Round(sum / float64(len(Weights))))
	if overall > 100 {
		overall = 100
	}
	if overall < 0 {
		overall = 0
	}
	return &Score{Overall: overall, PerCategory: coverages}
}
