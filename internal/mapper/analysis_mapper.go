package mapper

import (
	"encoding/json"
	"time"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/model"

	"gorm.io/datatypes"
)

type AnalysisMapper struct{}

func NewAnalysisMapper() *AnalysisMapper {
	return &AnalysisMapper{}
}

func (m *AnalysisMapper) AnalysisToEntity(a *model.Analysis) *entity.Analysis {
	if a == nil {
		return nil
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	var reopenEvents []entity.ReopenEvent
	if len(a.ReopenEvents) > 0 {
		// Corrupt audit JSON is not fatal; the analysis itself is intact.
		_ = json.Unmarshal(a.ReopenEvents, &reopenEvents)
	}

	return &entity.Analysis{
		Id:           a.Id,
		UserId:       a.UserId,
		Title:        a.Title,
		Description:  a.Description,
		EpicContent:  a.EpicContent,
		Status:       constant.AnalysisStatus(a.Status),
		CurrentPhase: constant.AnalysisPhase(a.CurrentPhase),
		Completeness: a.Completeness,
		StartedAt:    a.StartedAt,
		ReopenEvents: reopenEvents,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *AnalysisMapper) AnalysisToModel(a *entity.Analysis) *model.Analysis {
	if a == nil {
		return nil
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	var reopenEvents datatypes.JSON
	if len(a.ReopenEvents) > 0 {
		if data, err := json.Marshal(a.ReopenEvents); err == nil {
			reopenEvents = data
		}
	}

	return &model.Analysis{
		Id:           a.Id,
		UserId:       a.UserId,
		Title:        a.Title,
		Description:  a.Description,
		EpicContent:  a.EpicContent,
		Status:       string(a.Status),
		CurrentPhase: string(a.CurrentPhase),
		Completeness: a.Completeness,
		StartedAt:    a.StartedAt,
		ReopenEvents: reopenEvents,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *AnalysisMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	var category *constant.QuestionCategory
	if msg.Category != nil {
		if c, ok := constant.ParseCategory(*msg.Category); ok {
			category = &c
		}
	}

	return &entity.Message{
		Id:          msg.Id,
		AnalysisId:  msg.AnalysisId,
		Content:     msg.Content,
		Role:        constant.MessageRole(msg.Role),
		MessageType: constant.MessageType(msg.MessageType),
		Category:    category,
		CreatedAt:   msg.CreatedAt,
	}
}

func (m *AnalysisMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	var category *string
	if msg.Category != nil {
		c := string(*msg.Category)
		category = &c
	}

	return &model.Message{
		Id:          msg.Id,
		AnalysisId:  msg.AnalysisId,
		Content:     msg.Content,
		Role:        string(msg.Role),
		MessageType: string(msg.MessageType),
		Category:    category,
		CreatedAt:   msg.CreatedAt,
	}
}
