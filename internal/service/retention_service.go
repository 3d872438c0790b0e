package service

import (
	"context"

	"ai-reqanalyzer-be/internal/dto"
	"ai-reqanalyzer-be/internal/pkg/apperrors"
	"ai-reqanalyzer-be/internal/pkg/logger"
	"ai-reqanalyzer-be/internal/repository/unitofwork"
	"ai-reqanalyzer-be/pkg/analysis/retention"

	"github.com/google/uuid"
)

// IRetentionService exposes the purge engine to the admin surface.
type IRetentionService interface {
	PurgeCompletedBatch(ctx context.Context, request *dto.PurgeBatchRequest) ([]retention.Summary, error)
	PurgeOne(ctx context.Context, analysisId uuid.UUID, request *dto.PurgeOneRequest) (*retention.Summary, error)
}

type retentionService struct {
	engine *retention.Engine
	audit  logger.ILogger
}

// NewRetentionService wires the purge engine with the dedicated retention
// audit log so purge activity survives app-log rotation.
func NewRetentionService(uowFactory unitofwork.RepositoryFactory, audit logger.ILogger) IRetentionService {
	return &retentionService{
		engine: retention.NewEngine(uowFactory, audit),
		audit:  audit,
	}
}

func (s *retentionService) PurgeCompletedBatch(ctx context.Context, request *dto.PurgeBatchRequest) ([]retention.Summary, error) {
	summaries, err := s.engine.PurgeCompletedBatch(ctx, retention.BatchOptions{
		DryRun:       request.DryRun,
		KeepLastUser: request.KeepLastUser,
	})
	if err != nil {
		return nil, apperrors.Store("failed to list completed analyses", err)
	}

	failed := 0
	for _, summary := range summaries {
		if summary.Error != "" {
			failed++
		}
	}
	s.audit.Info("Retention", "Batch purge finished", map[string]interface{}{
		"dry_run": request.DryRun,
		"swept":   len(summaries),
		"failed":  failed,
	})
	return summaries, nil
}

func (s *retentionService) PurgeOne(ctx context.Context, analysisId uuid.UUID, request *dto.PurgeOneRequest) (*retention.Summary, error) {
	summary := s.engine.PurgeOne(ctx, analysisId, retention.Options{
		DryRun:            request.DryRun,
		KeepLastAssistant: request.KeepLastAssistant,
		KeepLastUser:      request.KeepLastUser,
	})
	if summary.Error == "analysis not found" {
		return nil, apperrors.NotFound("analysis")
	}
	return &summary, nil
}
