package specification

import (
	"ai-reqanalyzer-be/internal/constant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByAnalysisID struct {
	AnalysisID uuid.UUID
}

func (s ByAnalysisID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("analysis_id = ?", s.AnalysisID)
}

type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByStatus struct {
	Status constant.AnalysisStatus
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", string(s.Status))
}

type ByRole struct {
	Role constant.MessageRole
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", string(s.Role))
}

type ByContent struct {
	Content string
}

func (s ByContent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content = ?", s.Content)
}
