package service

import (
	"context"
	"errors"
	"testing"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/dto"
	"ai-reqanalyzer-be/internal/pkg/apperrors"
	"ai-reqanalyzer-be/internal/pkg/logger"
	"ai-reqanalyzer-be/internal/pkg/ratelimit"
	"ai-reqanalyzer-be/internal/repository/memory"
	"ai-reqanalyzer-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM returns scripted replies in order and counts invocations.
type fakeLLM struct {
	replies []string
	calls   int
	err     error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	if f.err != nil {
		return nil, f.err
	}
	reply := "Anything else?"
	if f.calls < len(f.replies) {
		reply = f.replies[f.calls]
	}
	f.calls++
	return &llm.Completion{Text: reply, PromptTokens: 10, CompletionTokens: 20}, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	return f.Chat(ctx, nil, options...)
}

type testEnv struct {
	factory *memory.Factory
	llm     *fakeLLM
	service IAnalysisService
	userId  uuid.UUID
}

func newTestEnv(replies ...string) *testEnv {
	factory := memory.NewFactory()
	provider := &fakeLLM{replies: replies}
	svc := NewAnalysisService(
		factory,
		provider,
		ratelimit.NewMemoryBudget(0), // unlimited
		nil,                          // no event bus in unit tests
		logger.NewNopLogger(),
	)
	return &testEnv{
		factory: factory,
		llm:     provider,
		service: svc,
		userId:  uuid.New(),
	}
}

func TestStartConversationSeedsFirstTurn(t *testing.T) {
	env := newTestEnv("[CATEGORY: FUNCTIONAL_REQUIREMENTS]\nWhat is the main user flow?")

	res, err := env.service.StartConversation(context.Background(), env.userId, &dto.StartConversationRequest{
		Title:       "Checkout epic",
		Description: "Support guest checkout",
	})
	require.NoError(t, err)
	assert.NotNil(t, res.StartedAt)
	assert.Equal(t, string(constant.PhaseAnalysis), res.CurrentPhase)

	messages, err := env.service.GetMessages(context.Background(), env.userId, res.Id)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, string(constant.RoleUser), messages[0].Role)
	assert.Contains(t, messages[0].Content, "Checkout epic")
	assert.Contains(t, messages[0].Content, "Support guest checkout")
	assert.Equal(t, string(constant.RoleAssistant), messages[1].Role)
	require.NotNil(t, messages[1].Category)
	assert.Equal(t, string(constant.CategoryFunctionalRequirements), *messages[1].Category)
}

func TestStartConversationRetryDoesNotReinvokeLLM(t *testing.T) {
	env := newTestEnv("[CATEGORY: BUSINESS_RULES]\nWho can approve?")

	first, err := env.service.StartConversation(context.Background(), env.userId, &dto.StartConversationRequest{
		Title: "Approvals",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, env.llm.calls)

	id := first.Id
	second, err := env.service.StartConversation(context.Background(), env.userId, &dto.StartConversationRequest{
		AnalysisId: &id,
	})
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, 1, env.llm.calls, "the losing retry must not generate again")

	messages, err := env.service.GetMessages(context.Background(), env.userId, id)
	require.NoError(t, err)
	assert.Len(t, messages, 2, "no duplicate seed or question")
}

func TestStartConversationUnknownAnalysis(t *testing.T) {
	env := newTestEnv()

	id := uuid.New()
	_, err := env.service.StartConversation(context.Background(), env.userId, &dto.StartConversationRequest{
		AnalysisId: &id,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestProcessUserMessageFullTurn(t *testing.T) {
	env := newTestEnv(
		"[CATEGORY: FUNCTIONAL_REQUIREMENTS]\nWhat is the main flow?",
		"[CATEGORY: ACCEPTANCE_CRITERIA]\nHow do we verify it?",
	)

	started, err := env.service.StartConversation(context.Background(), env.userId, &dto.StartConversationRequest{
		Title: "Epic",
	})
	require.NoError(t, err)

	res, err := env.service.ProcessUserMessage(context.Background(), env.userId, started.Id, &dto.SendMessageRequest{
		Content: "The user adds items and pays",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Reply)
	assert.Equal(t, string(constant.RoleAssistant), res.Reply.Role)
	require.NotNil(t, res.Reply.Category)
	assert.Equal(t, string(constant.CategoryAcceptanceCriteria), *res.Reply.Category)
	assert.NotEmpty(t, res.Phase)
	assert.Len(t, res.Coverage, 4)

	// seed user + opening question + answer + new question
	messages, err := env.service.GetMessages(context.Background(), env.userId, started.Id)
	require.NoError(t, err)
	assert.Len(t, messages, 4)
}

func TestProcessUserMessageInheritsQuestionCategory(t *testing.T) {
	env := newTestEnv(
		"[CATEGORY: BUSINESS_RULES]\nWho sets the discount?",
		"[CATEGORY: RISKS]\nWhat can fail?",
	)

	started, err := env.service.StartConversation(context.Background(), env.userId, &dto.StartConversationRequest{
		Title: "Discounts",
	})
	require.NoError(t, err)

	_, err = env.service.ProcessUserMessage(context.Background(), env.userId, started.Id, &dto.SendMessageRequest{
		Content: "Marketing sets it quarterly",
	})
	require.NoError(t, err)

	messages, err := env.service.GetMessages(context.Background(), env.userId, started.Id)
	require.NoError(t, err)
	var answer *dto.MessageResponse
	for _, m := range messages {
		if m.Content == "Marketing sets it quarterly" {
			answer = m
		}
	}
	require.NotNil(t, answer)
	require.NotNil(t, answer.Category)
	assert.Equal(t, string(constant.CategoryBusinessRules), *answer.Category)
}

func TestProcessUserMessageLLMFailureKeepsUserTurn(t *testing.T) {
	env := newTestEnv("[CATEGORY: CONSTRAINTS]\nAny budget limits?")

	started, err := env.service.StartConversation(context.Background(), env.userId, &dto.StartConversationRequest{
		Title: "Epic",
	})
	require.NoError(t, err)

	env.llm.err = errors.New("model overloaded")
	_, err = env.service.ProcessUserMessage(context.Background(), env.userId, started.Id, &dto.SendMessageRequest{
		Content: "None that I know of",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCollaborator))

	messages, err := env.service.GetMessages(context.Background(), env.userId, started.Id)
	require.NoError(t, err)
	require.Len(t, messages, 3, "the user's answer survives the failed generation")
	assert.Equal(t, "None that I know of", messages[2].Content)
}

func TestProcessUserMessageRejectsCompleted(t *testing.T) {
	env := newTestEnv("[CATEGORY: FUNCTIONAL_REQUIREMENTS]\nFirst?")

	started, err := env.service.StartConversation(context.Background(), env.userId, &dto.StartConversationRequest{
		Title: "Epic",
	})
	require.NoError(t, err)

	analysis, err := env.factory.UoW.Analyses.FindOne(context.Background())
	require.NoError(t, err)
	analysis.Status = constant.StatusCompleted
	analysis.CurrentPhase = constant.PhaseCompleted
	require.NoError(t, env.factory.UoW.Analyses.Update(context.Background(), analysis))

	_, err = env.service.ProcessUserMessage(context.Background(), env.userId, started.Id, &dto.SendMessageRequest{
		Content: "one more thing",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestProcessUserMessageOwnershipEnforced(t *testing.T) {
	env := newTestEnv("[CATEGORY: FUNCTIONAL_REQUIREMENTS]\nFirst?")

	started, err := env.service.StartConversation(context.Background(), env.userId, &dto.StartConversationRequest{
		Title: "Epic",
	})
	require.NoError(t, err)

	stranger := uuid.New()
	_, err = env.service.ProcessUserMessage(context.Background(), stranger, started.Id, &dto.SendMessageRequest{
		Content: "let me in",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestSubmitAdvanceReopenCycle(t *testing.T) {
	env := newTestEnv("[CATEGORY: FUNCTIONAL_REQUIREMENTS]\nFirst?")

	started, err := env.service.StartConversation(context.Background(), env.userId, &dto.StartConversationRequest{
		Title: "Epic",
	})
	require.NoError(t, err)

	submitted, err := env.service.SubmitPhase(context.Background(), env.userId, started.Id)
	require.NoError(t, err)
	assert.Equal(t, string(constant.StatusReadyToAdvance), submitted.Status)

	advanced, err := env.service.AdvanceToNextPhase(context.Background(), env.userId, started.Id)
	require.NoError(t, err)
	assert.Equal(t, string(constant.PhaseStrategy), advanced.CurrentPhase)
	assert.Equal(t, string(constant.StatusInProgress), advanced.Status)

	// walk to the end
	_, err = env.service.AdvanceToNextPhase(context.Background(), env.userId, started.Id)
	require.NoError(t, err)
	completed, err := env.service.AdvanceToNextPhase(context.Background(), env.userId, started.Id)
	require.NoError(t, err)
	assert.Equal(t, string(constant.StatusCompleted), completed.Status)
	assert.Equal(t, string(constant.PhaseCompleted), completed.CurrentPhase)
	assert.Equal(t, 100, completed.Completeness)

	// advancing again conflicts
	_, err = env.service.AdvanceToNextPhase(context.Background(), env.userId, started.Id)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	reopened, err := env.service.ReopenAnalysis(context.Background(), env.userId, started.Id, &dto.ReopenAnalysisRequest{
		Reason: "missed a requirement",
	})
	require.NoError(t, err)
	assert.Equal(t, string(constant.StatusReopened), reopened.Status)
	assert.NotEqual(t, string(constant.PhaseCompleted), reopened.CurrentPhase)
}

func TestGetAllScopedToOwner(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.CreateAnalysis(context.Background(), env.userId, &dto.CreateAnalysisRequest{Title: "mine"})
	require.NoError(t, err)
	_, err = env.service.CreateAnalysis(context.Background(), uuid.New(), &dto.CreateAnalysisRequest{Title: "theirs"})
	require.NoError(t, err)

	all, err := env.service.GetAll(context.Background(), env.userId)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "mine", all[0].Title)
}
