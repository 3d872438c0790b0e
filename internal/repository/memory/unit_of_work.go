package memory

import (
	"context"

	"ai-reqanalyzer-be/internal/repository/contract"
	"ai-reqanalyzer-be/internal/repository/unitofwork"
)

// UnitOfWork gives tests the same shape as the gorm-backed unit of work.
// Begin/Commit/Rollback are bookkeeping only; the fakes mutate immediately,
// which is sufficient for the single-goroutine unit tests using them.
type UnitOfWork struct {
	Analyses *AnalysisRepository
	Messages *MessageRepository

	BeginErr error
	inTx     bool
}

func NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{
		Analyses: NewAnalysisRepository(),
		Messages: NewMessageRepository(),
	}
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.BeginErr != nil {
		return u.BeginErr
	}
	u.inTx = true
	return nil
}

func (u *UnitOfWork) Commit() error {
	u.inTx = false
	return nil
}

func (u *UnitOfWork) Rollback() error {
	u.inTx = false
	return nil
}

func (u *UnitOfWork) AnalysisRepository() contract.AnalysisRepository {
	return u.Analyses
}

func (u *UnitOfWork) MessageRepository() contract.MessageRepository {
	return u.Messages
}

var _ unitofwork.UnitOfWork = (*UnitOfWork)(nil)

// Factory hands out the same unit of work each time so tests can seed and
// inspect state through one pair of fakes.
type Factory struct {
	UoW *UnitOfWork
}

func NewFactory() *Factory {
	return &Factory{UoW: NewUnitOfWork()}
}

func (f *Factory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.UoW
}

var _ unitofwork.RepositoryFactory = (*Factory)(nil)
