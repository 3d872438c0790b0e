package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/repository/contract"
	"ai-reqanalyzer-be/internal/repository/specification"

	"github.com/google/uuid"
)

// MessageRepository is the in-memory counterpart of the gorm message
// repository. Insertion order is retained so created_at ties sort stably,
// matching the store's behavior.
type MessageRepository struct {
	mu   sync.Mutex
	rows []*entity.Message

	CreateErr  error
	FindOneErr error
	FindAllErr error
	DeleteErr  error
	CountsErr  error
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	cp := *message
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *MessageRepository) DeleteByIds(ctx context.Context, ids []uuid.UUID) error {
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.rows[:0]
	for _, m := range r.rows {
		if !drop[m.Id] {
			kept = append(kept, m)
		}
	}
	r.rows = kept
	return nil
}

func (r *MessageRepository) DeleteByAnalysisId(ctx context.Context, analysisId uuid.UUID) error {
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.rows[:0]
	for _, m := range r.rows {
		if m.AnalysisId != analysisId {
			kept = append(kept, m)
		}
	}
	r.rows = kept
	return nil
}

func (r *MessageRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	if r.FindOneErr != nil {
		return nil, r.FindOneErr
	}
	all, err := r.findAll(specs)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *MessageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	if r.FindAllErr != nil {
		return nil, r.FindAllErr
	}
	return r.findAll(specs)
}

func (r *MessageRepository) findAll(specs []specification.Specification) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Message
	for _, m := range r.rows {
		if matchMessage(m, specs) {
			cp := *m
			out = append(out, &cp)
		}
	}
	for _, spec := range specs {
		if s, ok := spec.(specification.OrderBy); ok && s.Field == "created_at" {
			sort.SliceStable(out, func(i, j int) bool {
				if s.Desc {
					return out[i].CreatedAt.After(out[j].CreatedAt)
				}
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			})
		}
	}
	return out, nil
}

func (r *MessageRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func (r *MessageRepository) CountUserMessages(ctx context.Context, analysisId uuid.UUID) (*contract.UserMessageCounts, error) {
	if r.CountsErr != nil {
		return nil, r.CountsErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := &contract.UserMessageCounts{
		PerCategory: make(map[string]int64),
	}
	for _, m := range r.rows {
		if m.AnalysisId != analysisId || m.Role != constant.RoleUser {
			continue
		}
		counts.TotalUser++
		if m.Category != nil {
			counts.PerCategory[string(*m.Category)]++
		}
	}
	return counts, nil
}

var _ contract.MessageRepository = (*MessageRepository)(nil)

func matchMessage(m *entity.Message, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if m.Id != s.ID {
				return false
			}
		case specification.ByAnalysisID:
			if m.AnalysisId != s.AnalysisID {
				return false
			}
		case specification.ByRole:
			if m.Role != s.Role {
				return false
			}
		case specification.ByContent:
			if m.Content != s.Content {
				return false
			}
		case specification.OrderBy, specification.Pagination:
			// handled after filtering
		default:
			panic("memory: unsupported message specification")
		}
	}
	return true
}
