package retention

import (
	"context"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/pkg/logger"
	"ai-reqanalyzer-be/internal/repository/specification"
	"ai-reqanalyzer-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const previewLimit = 5

// BatchOptions configures a purge sweep over all completed analyses.
type BatchOptions struct {
	DryRun       bool
	KeepLastUser bool
}

// Options configures a purge of a single analysis. KeepLastAssistant=false
// wipes the whole history regardless of KeepLastUser.
type Options struct {
	DryRun            bool
	KeepLastAssistant bool
	KeepLastUser      bool
}

// Summary reports one analysis's purge outcome (or preview).
type Summary struct {
	AnalysisId       uuid.UUID   `json:"analysis_id"`
	TotalMessages    int         `json:"total_messages"`
	ToDeleteCount    int         `json:"to_delete_count"`
	KeptMessageIds   []uuid.UUID `json:"kept_message_ids"`
	PreviewDeleteIds []uuid.UUID `json:"preview_delete_ids"`
	DryRun           bool        `json:"dry_run"`
	Error            string      `json:"error,omitempty"`
}

// Engine deletes superseded conversation turns for completed analyses under
// a keep-policy. Dry-run computes the same candidate set without mutating;
// execute mode computes and deletes inside one transaction per analysis, so
// the deleted set is exactly the computed one.
type Engine struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewEngine(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) *Engine {
	return &Engine{
		uowFactory: uowFactory,
		logger:     log,
	}
}

// PurgeCompletedBatch sweeps every COMPLETED analysis. A failure purging one
// analysis lands in that analysis's summary and never aborts the rest.
func (e *Engine) PurgeCompletedBatch(ctx context.Context, opts BatchOptions) ([]Summary, error) {
	uow := e.uowFactory.NewUnitOfWork(ctx)
	completed, err := uow.AnalysisRepository().FindAll(ctx,
		specification.ByStatus{Status: constant.StatusCompleted},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(completed))
	for _, analysis := range completed {
		summary := e.PurgeOne(ctx, analysis.Id, Options{
			DryRun:            opts.DryRun,
			KeepLastAssistant: true,
			KeepLastUser:      opts.KeepLastUser,
		})
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// PurgeOne applies the keep-policy to a single analysis. A missing analysis
// or a failed run is reported in the summary's Error field, not as a Go
// error, so batch callers stay isolated from individual failures.
func (e *Engine) PurgeOne(ctx context.Context, analysisId uuid.UUID, opts Options) Summary {
	summary := Summary{
		AnalysisId: analysisId,
		DryRun:     opts.DryRun,
	}

	uow := e.uowFactory.NewUnitOfWork(ctx)
	analysis, err := uow.AnalysisRepository().FindOne(ctx, specification.ByID{ID: analysisId})
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	if analysis == nil {
		summary.Error = "analysis not found"
		return summary
	}

	if opts.DryRun {
		messages, err := e.loadOrdered(ctx, uow, analysisId)
		if err != nil {
			summary.Error = err.Error()
			return summary
		}
		fill(&summary, messages, opts)
		return summary
	}

	// Execute: compute-then-delete inside one transaction so the deleted set
	// cannot drift from the computed one.
	if err := uow.Begin(ctx); err != nil {
		summary.Error = err.Error()
		return summary
	}
	defer uow.Rollback()

	messages, err := e.loadOrdered(ctx, uow, analysisId)
	if err != nil {
		summary.Error = err.Error()
		return summary
	}
	fill(&summary, messages, opts)

	deleteIds := make([]uuid.UUID, 0, summary.ToDeleteCount)
	kept := make(map[uuid.UUID]bool, len(summary.KeptMessageIds))
	for _, id := range summary.KeptMessageIds {
		kept[id] = true
	}
	for _, m := range messages {
		if !kept[m.Id] {
			deleteIds = append(deleteIds, m.Id)
		}
	}

	if err := uow.MessageRepository().DeleteByIds(ctx, deleteIds); err != nil {
		summary.Error = err.Error()
		return summary
	}
	if err := uow.Commit(); err != nil {
		summary.Error = err.Error()
		return summary
	}

	e.logger.Info("Retention", "Purged analysis messages", map[string]interface{}{
		"analysis_id": analysisId,
		"deleted":     summary.ToDeleteCount,
		"kept":        len(summary.KeptMessageIds),
	})
	return summary
}

func (e *Engine) loadOrdered(ctx context.Context, uow unitofwork.UnitOfWork, analysisId uuid.UUID) ([]*entity.Message, error) {
	return uow.MessageRepository().FindAll(ctx,
		specification.ByAnalysisID{AnalysisID: analysisId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
}

// fill computes the keep/delete split for an ascending-ordered history.
func fill(summary *Summary, messages []*entity.Message, opts Options) {
	summary.TotalMessages = len(messages)
	summary.KeptMessageIds = []uuid.UUID{}
	summary.PreviewDeleteIds = []uuid.UUID{}

	kept := make(map[uuid.UUID]bool)
	if opts.KeepLastAssistant {
		assistantIdx := -1
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Role == constant.RoleAssistant {
				assistantIdx = i
				break
			}
		}
		if assistantIdx >= 0 {
			kept[messages[assistantIdx].Id] = true
			if opts.KeepLastUser {
				for i := assistantIdx - 1; i >= 0; i-- {
					if messages[i].Role == constant.RoleUser {
						kept[messages[i].Id] = true
						break
					}
				}
			}
		}
	}

	for _, m := range messages {
		if kept[m.Id] {
			summary.KeptMessageIds = append(summary.KeptMessageIds, m.Id)
			continue
		}
		summary.ToDeleteCount++
		if len(summary.PreviewDeleteIds) < previewLimit {
			summary.PreviewDeleteIds = append(summary.PreviewDeleteIds, m.Id)
		}
	}
}
