package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AnalysisId  uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_analysis_created,priority:1"`
	Content     string    `gorm:"type:text;not null"`
	Role        string    `gorm:"type:varchar(20);not null"`
	MessageType string    `gorm:"type:varchar(30);not null"`
	Category    *string   `gorm:"type:varchar(40)"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_messages_analysis_created,priority:2"`

	Analysis *Analysis `gorm:"foreignKey:AnalysisId;constraint:OnDelete:CASCADE"`
}

func (Message) TableName() string {
	return "messages"
}
