package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateAnalysisRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	EpicContent string `json:"epic_content"`
}

// StartConversationRequest kicks off (or retries) the first AI turn. With
// AnalysisId unset a new analysis is created first; with it set, the request
// is a safe retry against the existing analysis.
type StartConversationRequest struct {
	AnalysisId  *uuid.UUID `json:"analysis_id"`
	Title       string     `json:"title" validate:"required_without=AnalysisId,max=255"`
	Description string     `json:"description"`
	EpicContent string     `json:"epic_content"`
}

type AnalysisResponse struct {
	Id           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	EpicContent  string     `json:"epic_content,omitempty"`
	Status       string     `json:"status"`
	CurrentPhase string     `json:"current_phase"`
	Completeness int        `json:"completeness"`
	StartedAt    *time.Time `json:"started_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type MessageResponse struct {
	Id          uuid.UUID `json:"id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	Category    *string   `json:"category,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type SendMessageResponse struct {
	Reply        *MessageResponse   `json:"reply"`
	Phase        string             `json:"phase"`
	Completeness int                `json:"completeness"`
	Coverage     map[string]float64 `json:"coverage"`
}

type ReopenAnalysisRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type PurgeBatchRequest struct {
	DryRun       bool `json:"dry_run"`
	KeepLastUser bool `json:"keep_last_user"`
}

type PurgeOneRequest struct {
	DryRun            bool `json:"dry_run"`
	KeepLastAssistant bool `json:"keep_last_assistant"`
	KeepLastUser      bool `json:"keep_last_user"`
}
