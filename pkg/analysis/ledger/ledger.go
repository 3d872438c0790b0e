package ledger

import (
	"context"
	"sort"
	"strings"
	"time"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/pkg/logger"
	"ai-reqanalyzer-be/internal/repository/specification"
	"ai-reqanalyzer-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Ledger appends conversation turns and serves a deduplicated, ordered view.
// Dedup runs in two independent layers: a best-effort pre-check at append
// time and a reconciliation pass at read time. The append pre-check is
// check-then-act and can race with itself; that is accepted, because the
// read-side pass catches whatever slips through.
type Ledger struct {
	logger logger.ILogger
}

func NewLedger(log logger.ILogger) *Ledger {
	return &Ledger{logger: log}
}

// AppendInput carries the caller-controlled fields of a new message.
type AppendInput struct {
	Content     string
	Role        constant.MessageRole
	MessageType constant.MessageType
	Category    *constant.QuestionCategory
}

// Append stores a message unless an identical (analysis, role, content) row
// already exists, and bumps the parent's updated_at. A failing duplicate
// check degrades to a plain insert: availability beats strict dedup here.
func (l *Ledger) Append(ctx context.Context, uow unitofwork.UnitOfWork, analysisId uuid.UUID, input AppendInput) (*entity.Message, error) {
	messages := uow.MessageRepository()

	existing, err := messages.FindOne(ctx,
		specification.ByAnalysisID{AnalysisID: analysisId},
		specification.ByRole{Role: input.Role},
		specification.ByContent{Content: input.Content},
	)
	if err != nil {
		l.logger.Warn("Ledger", "Duplicate pre-check failed, falling back to best-effort insert", map[string]interface{}{
			"analysis_id": analysisId,
			"error":       err.Error(),
		})
	} else if existing != nil {
		return existing, nil
	}

	message := &entity.Message{
		Id:          uuid.New(),
		AnalysisId:  analysisId,
		Content:     input.Content,
		Role:        input.Role,
		MessageType: input.MessageType,
		Category:    input.Category,
		CreatedAt:   time.Now(),
	}
	if err := messages.Create(ctx, message); err != nil {
		return nil, err
	}

	if err := uow.AnalysisRepository().Touch(ctx, analysisId, time.Now()); err != nil {
		l.logger.Warn("Ledger", "Failed to touch analysis after append", map[string]interface{}{
			"analysis_id": analysisId,
			"error":       err.Error(),
		})
	}

	return message, nil
}

// Read returns the reconciled history: duplicates collapsed onto the earliest
// row per (role, trimmed content) key, survivors sorted ascending by
// created_at with insertion order breaking ties.
func (l *Ledger) Read(ctx context.Context, uow unitofwork.UnitOfWork, analysisId uuid.UUID) ([]*entity.Message, error) {
	fetched, err := uow.MessageRepository().FindAll(ctx,
		specification.ByAnalysisID{AnalysisID: analysisId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}
	return Reconcile(fetched), nil
}

type dedupKey struct {
	role    constant.MessageRole
	content string
}

// Reconcile applies the read-side dedup pass to an already-loaded history.
func Reconcile(fetched []*entity.Message) []*entity.Message {
	earliest := make(map[dedupKey]*entity.Message, len(fetched))
	order := make([]dedupKey, 0, len(fetched))

	for _, m := range fetched {
		key := dedupKey{role: m.Role, content: strings.TrimSpace(m.Content)}
		kept, seen := earliest[key]
		if !seen {
			earliest[key] = m
			order = append(order, key)
			continue
		}
		if m.CreatedAt.Before(kept.CreatedAt) {
			earliest[key] = m
		}
	}

	out := make([]*entity.Message, 0, len(order))
	for _, key := range order {
		out = append(out, earliest[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
