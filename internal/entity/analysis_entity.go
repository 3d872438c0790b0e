package entity

import (
	"time"

	"ai-reqanalyzer-be/internal/constant"

	"github.com/google/uuid"
)

// ReopenEvent records one audit entry for a reopened analysis.
type ReopenEvent struct {
	Reason     string    `json:"reason"`
	ReopenedAt time.Time `json:"reopened_at"`
}

type Analysis struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Title        string
	Description  string
	EpicContent  string
	Status       constant.AnalysisStatus
	CurrentPhase constant.AnalysisPhase
	Completeness int
	StartedAt    *time.Time
	ReopenEvents []ReopenEvent
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Started reports whether the first AI turn has been claimed for this analysis.
func (a *Analysis) Started() bool {
	return a.StartedAt != nil
}
