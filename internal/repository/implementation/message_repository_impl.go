package implementation

import (
	"context"
	"errors"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/mapper"
	"ai-reqanalyzer-be/internal/model"
	"ai-reqanalyzer-be/internal/repository/contract"
	"ai-reqanalyzer-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AnalysisMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewAnalysisMapper(),
	}
}

func (r *MessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) DeleteByIds(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Message{}).Error
}

func (r *MessageRepositoryImpl) DeleteByAnalysisId(ctx context.Context, analysisId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("analysis_id = ?", analysisId).Delete(&model.Message{}).Error
}

func (r *MessageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	var m model.Message
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MessageToEntity(&m), nil
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Message, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MessageToEntity(m)
	}
	return entities, nil
}

func (r *MessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Message{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepositoryImpl) CountUserMessages(ctx context.Context, analysisId uuid.UUID) (*contract.UserMessageCounts, error) {
	type categoryRow struct {
		Category *string
		Total    int64
	}

	var rows []categoryRow
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Select("category, COUNT(*) as total").
		Where("analysis_id = ? AND role = ?", analysisId, string(constant.RoleUser)).
		Group("category").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := &contract.UserMessageCounts{
		PerCategory: make(map[string]int64),
	}
	for _, row := range rows {
		counts.TotalUser += row.Total
		if row.Category != nil && *row.Category != "" {
			counts.PerCategory[*row.Category] += row.Total
		}
	}
	return counts, nil
}
