package prompt

import (
	"testing"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIncludesEpicAndHistory(t *testing.T) {
	analysis := &entity.Analysis{
		Title:        "checkout",
		EpicContent:  "As a shopper I want to pay with saved cards",
		CurrentPhase: constant.PhaseStrategy,
	}
	history := []*entity.Message{
		{Role: constant.RoleAssistant, Content: "[CATEGORY: BUSINESS_RULES]\nWhich cards are allowed?"},
		{Role: constant.RoleUser, Content: "Visa and Mastercard only"},
	}

	messages := NewBuilder(analysis, history).Build()

	require.Len(t, messages, 3)
	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[0].Content, "As a shopper I want to pay with saved cards")
	assert.Contains(t, messages[0].Content, string(constant.PhaseStrategy))
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Equal(t, "user", messages[2].Role)
	assert.Equal(t, "Visa and Mastercard only", messages[2].Content)
}

func TestBuildSystemPromptListsAllCategories(t *testing.T) {
	analysis := &entity.Analysis{CurrentPhase: constant.PhaseAnalysis}
	messages := NewBuilder(analysis, nil).Build()

	for _, c := range constant.AllCategories {
		assert.Contains(t, messages[0].Content, string(c))
	}
}

func TestBuildOpening(t *testing.T) {
	analysis := &entity.Analysis{CurrentPhase: constant.PhaseAnalysis}
	messages := NewBuilder(analysis, nil).BuildOpening()

	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "user", messages[1].Role)
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  *constant.QuestionCategory
	}{
		{
			name:  "tag at the start",
			reply: "[CATEGORY: FUNCTIONAL_REQUIREMENTS]\nWhat should happen on timeout?",
			want:  categoryPtr(constant.CategoryFunctionalRequirements),
		},
		{
			name:  "tag after preamble",
			reply: "Good point.\n[CATEGORY: EDGE_CASES] What about empty carts?",
			want:  categoryPtr(constant.CategoryEdgeCases),
		},
		{
			name:  "lowercase tag value",
			reply: "[CATEGORY: business_rules] Who approves refunds?",
			want:  categoryPtr(constant.CategoryBusinessRules),
		},
		{
			name:  "no tag",
			reply: "Could you elaborate on that?",
			want:  nil,
		},
		{
			name:  "unknown category",
			reply: "[CATEGORY: VIBES] How does it feel?",
			want:  nil,
		},
		{
			name:  "unterminated tag",
			reply: "[CATEGORY: RISKS what could go wrong",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCategory(tt.reply)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func categoryPtr(c constant.QuestionCategory) *constant.QuestionCategory {
	return &c
}
