package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/dto"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/pkg/apperrors"
	"ai-reqanalyzer-be/internal/pkg/logger"
	"ai-reqanalyzer-be/internal/pkg/ratelimit"
	"ai-reqanalyzer-be/internal/repository/specification"
	"ai-reqanalyzer-be/internal/repository/unitofwork"
	"ai-reqanalyzer-be/pkg/analysis/guard"
	"ai-reqanalyzer-be/pkg/analysis/ledger"
	"ai-reqanalyzer-be/pkg/analysis/phase"
	"ai-reqanalyzer-be/pkg/analysis/prompt"
	"ai-reqanalyzer-be/pkg/analysis/scoring"
	"ai-reqanalyzer-be/pkg/events"
	"ai-reqanalyzer-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// IAnalysisService defines the conversational analysis workflow interface
type IAnalysisService interface {
	CreateAnalysis(ctx context.Context, userId uuid.UUID, request *dto.CreateAnalysisRequest) (*dto.AnalysisResponse, error)
	StartConversation(ctx context.Context, userId uuid.UUID, request *dto.StartConversationRequest) (*dto.AnalysisResponse, error)
	ProcessUserMessage(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	SubmitPhase(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID) (*dto.AnalysisResponse, error)
	AdvanceToNextPhase(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID) (*dto.AnalysisResponse, error)
	ReopenAnalysis(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID, request *dto.ReopenAnalysisRequest) (*dto.AnalysisResponse, error)
	GetMessages(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID) ([]*dto.MessageResponse, error)
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.AnalysisResponse, error)
	Show(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID) (*dto.AnalysisResponse, error)
}

// analysisService coordinates domain components
type analysisService struct {
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.Provider
	budget      ratelimit.TokenBudget
	pubSub      *gochannel.GoChannel
	logger      logger.ILogger

	// Domain components
	startGuard *guard.StartGuard
	ledger     *ledger.Ledger
	scorer     *scoring.Scorer
	machine    *phase.Machine
}

func NewAnalysisService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.Provider,
	budget ratelimit.TokenBudget,
	pubSub *gochannel.GoChannel,
	log logger.ILogger,
) IAnalysisService {
	return &analysisService{
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		budget:      budget,
		pubSub:      pubSub,
		logger:      log,

		startGuard: guard.NewStartGuard(log),
		ledger:     ledger.NewLedger(log),
		scorer:     scoring.NewScorer(),
		machine:    phase.NewMachine(),
	}
}

// CreateAnalysis persists a fresh analysis without touching the LLM.
func (s *analysisService) CreateAnalysis(ctx context.Context, userId uuid.UUID, request *dto.CreateAnalysisRequest) (*dto.AnalysisResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	analysis := newAnalysis(userId, request.Title, request.Description, request.EpicContent)
	if err := uow.AnalysisRepository().Create(ctx, analysis); err != nil {
		return nil, apperrors.Store("failed to create analysis", err)
	}
	return toAnalysisResponse(analysis), nil
}

// StartConversation runs the guard-gated first AI turn. Exactly one of any
// number of concurrent callers seeds the conversation and invokes the LLM;
// the rest observe the persisted state unchanged.
func (s *analysisService) StartConversation(ctx context.Context, userId uuid.UUID, request *dto.StartConversationRequest) (*dto.AnalysisResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	var analysis *entity.Analysis
	if request.AnalysisId != nil {
		found, err := s.findOwned(ctx, uow, userId, *request.AnalysisId)
		if err != nil {
			return nil, err
		}
		analysis = found
	} else {
		analysis = newAnalysis(userId, request.Title, request.Description, request.EpicContent)
		if err := uow.AnalysisRepository().Create(ctx, analysis); err != nil {
			return nil, apperrors.Store("failed to create analysis", err)
		}
	}

	acquired, current, err := s.startGuard.Acquire(ctx, uow, analysis.Id)
	if err != nil {
		return nil, apperrors.Store("failed to read analysis after start claim", err)
	}
	if !acquired {
		// Someone else already seeded; return their state untouched.
		return toAnalysisResponse(current), nil
	}
	analysis = current

	seed := analysis.Title
	if analysis.Description != "" {
		seed += "\n\n" + analysis.Description
	}
	if _, err := s.ledger.Append(ctx, uow, analysis.Id, ledger.AppendInput{
		Content:     seed,
		Role:        constant.RoleUser,
		MessageType: constant.TypeAnswer,
	}); err != nil {
		return nil, apperrors.Store("failed to seed conversation", err)
	}

	if err := s.budget.Allow(ctx, userId); err != nil {
		return nil, err
	}
	builder := prompt.NewBuilder(analysis, nil)
	completion, err := s.llmProvider.Chat(ctx, builder.BuildOpening())
	if err != nil {
		// The claim stands; the opening question can be recovered on the
		// next user turn.
		return nil, apperrors.Collaborator("failed to generate opening question", err)
	}
	s.budget.Record(ctx, userId, completion.PromptTokens+completion.CompletionTokens)

	if _, err := s.ledger.Append(ctx, uow, analysis.Id, ledger.AppendInput{
		Content:     completion.Text,
		Role:        constant.RoleAssistant,
		MessageType: constant.TypeQuestion,
		Category:    prompt.ParseCategory(completion.Text),
	}); err != nil {
		return nil, apperrors.Store("failed to store opening question", err)
	}

	s.publish(events.NewAnalysisEvent(constant.EventAnalysisStarted, analysis.Id, userId, nil))
	return toAnalysisResponse(analysis), nil
}

// ProcessUserMessage appends the user's turn, asks the LLM for the next
// question, rescores coverage and re-derives the phase. No transaction wraps
// the LLM call: a user turn without a reply stays visible, and coverage and
// phase only ever reflect fully completed turns.
func (s *analysisService) ProcessUserMessage(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	analysis, err := s.findOwned(ctx, uow, userId, analysisId)
	if err != nil {
		return nil, err
	}
	if analysis.Status == constant.StatusCompleted {
		return nil, apperrors.Conflict("analysis is completed; reopen it to continue")
	}

	if err := s.budget.Allow(ctx, userId); err != nil {
		return nil, err
	}

	history, err := s.ledger.Read(ctx, uow, analysisId)
	if err != nil {
		return nil, apperrors.Store("failed to load conversation", err)
	}

	// A user answer inherits the category of the question it answers.
	if _, err := s.ledger.Append(ctx, uow, analysisId, ledger.AppendInput{
		Content:     request.Content,
		Role:        constant.RoleUser,
		MessageType: constant.TypeAnswer,
		Category:    lastQuestionCategory(history),
	}); err != nil {
		return nil, apperrors.Store("failed to store user message", err)
	}

	turn := append(history, &entity.Message{
		Role:    constant.RoleUser,
		Content: request.Content,
	})
	completion, err := s.llmProvider.Chat(ctx, prompt.NewBuilder(analysis, turn).Build())
	if err != nil {
		return nil, apperrors.Collaborator("llm call failed", err)
	}
	s.budget.Record(ctx, userId, completion.PromptTokens+completion.CompletionTokens)

	reply, err := s.ledger.Append(ctx, uow, analysisId, ledger.AppendInput{
		Content:     completion.Text,
		Role:        constant.RoleAssistant,
		MessageType: constant.TypeQuestion,
		Category:    prompt.ParseCategory(completion.Text),
	})
	if err != nil {
		return nil, apperrors.Store("failed to store assistant reply", err)
	}

	score, err := s.scorer.Compute(ctx, uow, analysisId)
	if err != nil {
		return nil, apperrors.Store("failed to compute coverage", err)
	}
	s.machine.Recalculate(analysis, score.Overall)
	if err := uow.AnalysisRepository().Update(ctx, analysis); err != nil {
		return nil, apperrors.Store("failed to persist analysis", err)
	}

	s.publish(events.NewAnalysisEvent(constant.EventMessageProcessed, analysisId, userId, map[string]interface{}{
		"phase":        string(analysis.CurrentPhase),
		"completeness": analysis.Completeness,
	}))

	return &dto.SendMessageResponse{
		Reply:        toMessageResponse(reply),
		Phase:        string(analysis.CurrentPhase),
		Completeness: analysis.Completeness,
		Coverage:     coverageMap(score),
	}, nil
}

func (s *analysisService) SubmitPhase(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID) (*dto.AnalysisResponse, error) {
	return s.transition(ctx, userId, analysisId, func(a *entity.Analysis) error {
		return s.machine.Submit(a)
	})
}

func (s *analysisService) AdvanceToNextPhase(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID) (*dto.AnalysisResponse, error) {
	return s.transition(ctx, userId, analysisId, func(a *entity.Analysis) error {
		return s.machine.Advance(a)
	})
}

func (s *analysisService) ReopenAnalysis(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID, request *dto.ReopenAnalysisRequest) (*dto.AnalysisResponse, error) {
	return s.transition(ctx, userId, analysisId, func(a *entity.Analysis) error {
		return s.machine.Reopen(a, request.Reason)
	})
}

func (s *analysisService) transition(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID, op func(*entity.Analysis) error) (*dto.AnalysisResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	analysis, err := s.findOwned(ctx, uow, userId, analysisId)
	if err != nil {
		return nil, err
	}

	before := analysis.Status
	if err := op(analysis); err != nil {
		return nil, err
	}
	if err := uow.AnalysisRepository().Update(ctx, analysis); err != nil {
		return nil, apperrors.Store("failed to persist analysis", err)
	}

	switch {
	case analysis.Status == constant.StatusCompleted && before != constant.StatusCompleted:
		s.publish(events.NewAnalysisEvent(constant.EventAnalysisCompleted, analysisId, userId, nil))
	case analysis.Status == constant.StatusReopened && before != constant.StatusReopened:
		s.publish(events.NewAnalysisEvent(constant.EventAnalysisReopened, analysisId, userId, nil))
	default:
		s.publish(events.NewAnalysisEvent(constant.EventPhaseAdvanced, analysisId, userId, map[string]interface{}{
			"phase": string(analysis.CurrentPhase),
		}))
	}

	return toAnalysisResponse(analysis), nil
}

func (s *analysisService) GetMessages(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwned(ctx, uow, userId, analysisId); err != nil {
		return nil, err
	}

	messages, err := s.ledger.Read(ctx, uow, analysisId)
	if err != nil {
		return nil, apperrors.Store("failed to load conversation", err)
	}

	out := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	return out, nil
}

func (s *analysisService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.AnalysisResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	analyses, err := uow.AnalysisRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, apperrors.Store("failed to list analyses", err)
	}

	out := make([]*dto.AnalysisResponse, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, toAnalysisResponse(a))
	}
	return out, nil
}

func (s *analysisService) Show(ctx context.Context, userId uuid.UUID, analysisId uuid.UUID) (*dto.AnalysisResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	analysis, err := s.findOwned(ctx, uow, userId, analysisId)
	if err != nil {
		return nil, err
	}
	return toAnalysisResponse(analysis), nil
}

func (s *analysisService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, analysisId uuid.UUID) (*entity.Analysis, error) {
	analysis, err := uow.AnalysisRepository().FindOne(ctx,
		specification.ByID{ID: analysisId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, apperrors.Store("failed to load analysis", err)
	}
	if analysis == nil {
		return nil, apperrors.NotFound("analysis")
	}
	return analysis, nil
}

func (s *analysisService) publish(event events.Event) {
	if s.pubSub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type":        event.EventType(),
		"data":        event.Payload(),
		"occurred_at": event.Timestamp(),
	})
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(constant.AnalysisEventsTopic, msg); err != nil {
		s.logger.Warn("AnalysisService", "Failed to publish event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

func newAnalysis(userId uuid.UUID, title, description, epicContent string) *entity.Analysis {
	return &entity.Analysis{
		Id:           uuid.New(),
		UserId:       userId,
		Title:        title,
		Description:  description,
		EpicContent:  epicContent,
		Status:       constant.StatusInProgress,
		CurrentPhase: constant.PhaseAnalysis,
		Completeness: 0,
		CreatedAt:    time.Now(),
	}
}

// lastQuestionCategory finds the category of the newest assistant question.
func lastQuestionCategory(history []*entity.Message) *constant.QuestionCategory {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == constant.RoleAssistant && history[i].Category != nil {
			return history[i].Category
		}
	}
	return nil
}

func coverageMap(score *scoring.Score) map[string]float64 {
	out := make(map[string]float64, len(score.PerCategory))
	for category, coverage := range score.PerCategory {
		out[string(category)] = coverage
	}
	return out
}

func toAnalysisResponse(a *entity.Analysis) *dto.AnalysisResponse {
	if a == nil {
		return nil
	}
	return &dto.AnalysisResponse{
		Id:           a.Id,
		Title:        a.Title,
		Description:  a.Description,
		EpicContent:  a.EpicContent,
		Status:       string(a.Status),
		CurrentPhase: string(a.CurrentPhase),
		Completeness: a.Completeness,
		StartedAt:    a.StartedAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toMessageResponse(m *entity.Message) *dto.MessageResponse {
	if m == nil {
		return nil
	}
	var category *string
	if m.Category != nil {
		c := string(*m.Category)
		category = &c
	}
	return &dto.MessageResponse{
		Id:          m.Id,
		Role:        string(m.Role),
		Content:     m.Content,
		MessageType: string(m.MessageType),
		Category:    category,
		CreatedAt:   m.CreatedAt,
	}
}
