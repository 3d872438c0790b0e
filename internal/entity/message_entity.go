package entity

import (
	"time"

	"ai-reqanalyzer-be/internal/constant"

	"github.com/google/uuid"
)

// Message is one turn in an analysis conversation. Messages are immutable
// once created; the only legal mutations are creation and bulk purge.
type Message struct {
	Id          uuid.UUID
	AnalysisId  uuid.UUID
	Content     string
	Role        constant.MessageRole
	MessageType constant.MessageType
	Category    *constant.QuestionCategory
	CreatedAt   time.Time
}
