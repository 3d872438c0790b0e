package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Analysis struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Title        string         `gorm:"type:text;not null"`
	Description  string         `gorm:"type:text"`
	EpicContent  string         `gorm:"type:text"`
	Status       string         `gorm:"type:varchar(30);not null;index"`
	CurrentPhase string         `gorm:"type:varchar(30);not null"`
	Completeness int            `gorm:"not null;default:0"`
	StartedAt    *time.Time     `gorm:""`
	ReopenEvents datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (Analysis) TableName() string {
	return "analyses"
}
