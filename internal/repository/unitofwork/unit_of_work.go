package unitofwork

import (
	"context"

	"ai-reqanalyzer-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AnalysisRepository() contract.AnalysisRepository
	MessageRepository() contract.MessageRepository
}
