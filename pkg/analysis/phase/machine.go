package phase

import (
	"time"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/pkg/apperrors"
)

// Score thresholds for deriving the phase from completeness.
const (
	strategyThreshold     = 30
	testPlanningThreshold = 70
)

// Machine owns the phase/status transition rules. It mutates entities in
// place; persistence is the caller's concern.
type Machine struct{}

func NewMachine() *Machine {
	return &Machine{}
}

// Derive maps a completeness score onto a phase. A COMPLETED status forces
// the COMPLETED phase regardless of score.
func (m *Machine) Derive(status constant.AnalysisStatus, completeness int) constant.AnalysisPhase {
	if status == constant.StatusCompleted {
		return constant.PhaseCompleted
	}
	switch {
	case completeness < strategyThreshold:
		return constant.PhaseAnalysis
	case completeness < testPlanningThreshold:
		return constant.PhaseStrategy
	default:
		return constant.PhaseTestPlanning
	}
}

// Recalculate applies a fresh score to the analysis and re-derives the phase.
// Because coverage is a ratio, the derived phase can drop as the conversation
// grows; outside an explicit reopen the stored phase never regresses.
func (m *Machine) Recalculate(analysis *entity.Analysis, completeness int) {
	analysis.Completeness = clampScore(completeness)
	derived := m.Derive(analysis.Status, analysis.Completeness)
	if analysis.Status != constant.StatusReopened && rank(derived) < rank(analysis.CurrentPhase) {
		return
	}
	analysis.CurrentPhase = derived
}

// Submit marks the current phase's work as finished. On the last phase it
// completes the analysis outright. Submitting an already-submitted or
// completed analysis is a no-op.
func (m *Machine) Submit(analysis *entity.Analysis) error {
	switch analysis.Status {
	case constant.StatusCompleted, constant.StatusReadyToAdvance, constant.StatusSubmitted:
		return nil
	}

	if analysis.CurrentPhase == constant.PhaseTestPlanning {
		complete(analysis)
		return nil
	}
	analysis.Status = constant.StatusReadyToAdvance
	return nil
}

// Advance moves the phase forward exactly one step. Advancing a completed
// analysis is a conflict.
func (m *Machine) Advance(analysis *entity.Analysis) error {
	switch analysis.CurrentPhase {
	case constant.PhaseAnalysis:
		analysis.CurrentPhase = constant.PhaseStrategy
	case constant.PhaseStrategy:
		analysis.CurrentPhase = constant.PhaseTestPlanning
	case constant.PhaseTestPlanning:
		complete(analysis)
		return nil
	case constant.PhaseCompleted:
		return apperrors.Conflict("analysis is already completed")
	default:
		return apperrors.Invariant("unknown phase: " + string(analysis.CurrentPhase))
	}
	analysis.Status = constant.StatusInProgress
	return nil
}

// Reopen moves a submitted or completed analysis back into active work,
// re-deriving the phase from the score and recording the reason for audit.
func (m *Machine) Reopen(analysis *entity.Analysis, reason string) error {
	switch analysis.Status {
	case constant.StatusCompleted, constant.StatusSubmitted, constant.StatusReadyToAdvance:
		// reopenable
	default:
		return apperrors.Conflict("analysis is not in a reopenable state")
	}

	analysis.Status = constant.StatusReopened
	analysis.CurrentPhase = m.Derive(analysis.Status, analysis.Completeness)
	analysis.ReopenEvents = append(analysis.ReopenEvents, entity.ReopenEvent{
		Reason:     reason,
		ReopenedAt: time.Now(),
	})
	return nil
}

func complete(analysis *entity.Analysis) {
	analysis.Status = constant.StatusCompleted
	analysis.CurrentPhase = constant.PhaseCompleted
	analysis.Completeness = 100
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func rank(phase constant.AnalysisPhase) int {
	switch phase {
	case constant.PhaseAnalysis:
		return 0
	case constant.PhaseStrategy:
		return 1
	case constant.PhaseTestPlanning:
		return 2
	case constant.PhaseCompleted:
		return 3
	default:
		return -1
	}
}
