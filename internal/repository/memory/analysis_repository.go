package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/repository/contract"
	"ai-reqanalyzer-be/internal/repository/specification"

	"github.com/google/uuid"
)

// AnalysisRepository is an in-memory stand-in for the gorm-backed repository,
// used by unit tests. It interprets the specification types the domain
// actually uses; an unknown specification means a test bug, so it panics.
type AnalysisRepository struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]*entity.Analysis
	inserted []uuid.UUID

	// Error injection for failure-path tests.
	UpdateErr      error
	FindOneErr     error
	MarkStartedErr error
}

func NewAnalysisRepository() *AnalysisRepository {
	return &AnalysisRepository{
		rows: make(map[uuid.UUID]*entity.Analysis),
	}
}

func (r *AnalysisRepository) Create(ctx context.Context, analysis *entity.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if analysis.Id == uuid.Nil {
		analysis.Id = uuid.New()
	}
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now()
	}
	cp := *analysis
	r.rows[analysis.Id] = &cp
	r.inserted = append(r.inserted, analysis.Id)
	return nil
}

func (r *AnalysisRepository) Update(ctx context.Context, analysis *entity.Analysis) error {
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	analysis.UpdatedAt = &now
	cp := *analysis
	r.rows[analysis.Id] = &cp
	return nil
}

func (r *AnalysisRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *AnalysisRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Analysis, error) {
	if r.FindOneErr != nil {
		return nil, r.FindOneErr
	}
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *AnalysisRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Analysis
	for _, id := range r.inserted {
		a, ok := r.rows[id]
		if !ok {
			continue
		}
		if matchAnalysis(a, specs) {
			cp := *a
			out = append(out, &cp)
		}
	}
	applyAnalysisOrdering(out, specs)
	return out, nil
}

func (r *AnalysisRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func (r *AnalysisRepository) MarkStartedIfNot(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if r.MarkStartedErr != nil {
		return false, r.MarkStartedErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.rows[id]
	if !ok || a.StartedAt != nil {
		return false, nil
	}
	t := at
	a.StartedAt = &t
	return true, nil
}

func (r *AnalysisRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.rows[id]; ok {
		t := at
		a.UpdatedAt = &t
	}
	return nil
}

var _ contract.AnalysisRepository = (*AnalysisRepository)(nil)

func matchAnalysis(a *entity.Analysis, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if a.Id != s.ID {
				return false
			}
		case specification.UserOwnedBy:
			if a.UserId != s.UserID {
				return false
			}
		case specification.ByStatus:
			if a.Status != s.Status {
				return false
			}
		case specification.OrderBy, specification.Pagination:
			// handled after filtering
		default:
			panic("memory: unsupported analysis specification")
		}
	}
	return true
}

func applyAnalysisOrdering(rows []*entity.Analysis, specs []specification.Specification) {
	for _, spec := range specs {
		if s, ok := spec.(specification.OrderBy); ok && s.Field == "created_at" {
			sort.SliceStable(rows, func(i, j int) bool {
				if s.Desc {
					return rows[i].CreatedAt.After(rows[j].CreatedAt)
				}
				return rows[i].CreatedAt.Before(rows[j].CreatedAt)
			})
		}
	}
}
