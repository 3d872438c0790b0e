package scoring

import (
	"context"
	"testing"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userMsg(analysisId uuid.UUID, category *constant.QuestionCategory) *entity.Message {
	return &entity.Message{
		Id:         uuid.New(),
		AnalysisId: analysisId,
		Role:       constant.RoleUser,
		Content:    uuid.NewString(),
		Category:   category,
	}
}

func assistantMsg(analysisId uuid.UUID) *entity.Message {
	return &entity.Message{
		Id:         uuid.New(),
		AnalysisId: analysisId,
		Role:       constant.RoleAssistant,
		Content:    uuid.NewString(),
	}
}

func cat(c constant.QuestionCategory) *constant.QuestionCategory {
	return &c
}

func TestComputeInMemory(t *testing.T) {
	analysisId := uuid.New()

	tests := []struct {
		name        string
		messages    []*entity.Message
		wantOverall int
	}{
		{
			name:        "no messages scores zero",
			messages:    nil,
			wantOverall: 0,
		},
		{
			name: "assistant messages alone score zero",
			messages: []*entity.Message{
				assistantMsg(analysisId),
				assistantMsg(analysisId),
			},
			wantOverall: 0,
		},
		{
			name: "uncategorized user message counts toward total only",
			messages: []*entity.Message{
				userMsg(analysisId, nil),
			},
			wantOverall: 0,
		},
		{
			// With 4 answers the FR denominator is 4*0.30=1.2; the other three
			// categories clamp their denominator up to 1 and max out.
			name: "one answer per weighted category",
			messages: []*entity.Message{
				userMsg(analysisId, cat(constant.CategoryFunctionalRequirements)),
				userMsg(analysisId, cat(constant.CategoryNonFunctionalRequirements)),
				userMsg(analysisId, cat(constant.CategoryBusinessRules)),
				userMsg(analysisId, cat(constant.CategoryAcceptanceCriteria)),
			},
			wantOverall: 96,
		},
		{
			// 2/max(1, 2*0.30)*100 caps at 100 per category; the three empty
			// categories drag the mean down to 25.
			name: "per-category coverage clamps at 100",
			messages: []*entity.Message{
				userMsg(analysisId, cat(constant.CategoryFunctionalRequirements)),
				userMsg(analysisId, cat(constant.CategoryFunctionalRequirements)),
			},
			wantOverall: 25,
		},
		{
			name: "unweighted category counts toward total only",
			messages: []*entity.Message{
				userMsg(analysisId, cat(constant.CategoryRisks)),
			},
			wantOverall: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ComputeInMemory(tt.messages)
			assert.Equal(t, tt.wantOverall, score.Overall)
			assert.Len(t, score.PerCategory, len(Weights))
		})
	}
}

func TestComputeInMemoryCoverages(t *testing.T) {
	analysisId := uuid.New()
	score := ComputeInMemory([]*entity.Message{
		userMsg(analysisId, cat(constant.CategoryFunctionalRequirements)),
		userMsg(analysisId, cat(constant.CategoryNonFunctionalRequirements)),
		userMsg(analysisId, cat(constant.CategoryBusinessRules)),
		userMsg(analysisId, cat(constant.CategoryAcceptanceCriteria)),
	})

	assert.InDelta(t, 83.33, score.PerCategory[constant.CategoryFunctionalRequirements], 0.01)
	assert.InDelta(t, 100, score.PerCategory[constant.CategoryNonFunctionalRequirements], 0.01)
	assert.InDelta(t, 100, score.PerCategory[constant.CategoryBusinessRules], 0.01)
	assert.InDelta(t, 100, score.PerCategory[constant.CategoryAcceptanceCriteria], 0.01)
}

func TestComputeAgreesWithInMemory(t *testing.T) {
	analysisId := uuid.New()
	uow := memory.NewUnitOfWork()

	messages := []*entity.Message{
		userMsg(analysisId, cat(constant.CategoryFunctionalRequirements)),
		userMsg(analysisId, cat(constant.CategoryFunctionalRequirements)),
		userMsg(analysisId, cat(constant.CategoryBusinessRules)),
		userMsg(analysisId, nil),
		assistantMsg(analysisId),
	}
	for _, m := range messages {
		require.NoError(t, uow.Messages.Create(context.Background(), m))
	}

	queryScore, err := NewScorer().Compute(context.Background(), uow, analysisId)
	require.NoError(t, err)

	memScore := ComputeInMemory(messages)
	assert.Equal(t, memScore.Overall, queryScore.Overall)
	assert.Equal(t, memScore.PerCategory, queryScore.PerCategory)
}

func TestComputeIgnoresOtherAnalyses(t *testing.T) {
	analysisId := uuid.New()
	other := uuid.New()
	uow := memory.NewUnitOfWork()

	require.NoError(t, uow.Messages.Create(context.Background(), userMsg(other, cat(constant.CategoryFunctionalRequirements))))

	score, err := NewScorer().Compute(context.Background(), uow, analysisId)
	require.NoError(t, err)
	assert.Equal(t, 0, score.Overall)
}
