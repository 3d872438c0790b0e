package phase

import (
	"testing"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive(t *testing.T) {
	m := NewMachine()

	tests := []struct {
		name         string
		status       constant.AnalysisStatus
		completeness int
		want         constant.AnalysisPhase
	}{
		{"zero score", constant.StatusInProgress, 0, constant.PhaseAnalysis},
		{"just below strategy", constant.StatusInProgress, 29, constant.PhaseAnalysis},
		{"strategy boundary", constant.StatusInProgress, 30, constant.PhaseStrategy},
		{"just below test planning", constant.StatusInProgress, 69, constant.PhaseStrategy},
		{"test planning boundary", constant.StatusInProgress, 70, constant.PhaseTestPlanning},
		{"full score", constant.StatusInProgress, 100, constant.PhaseTestPlanning},
		{"completed status wins over low score", constant.StatusCompleted, 10, constant.PhaseCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Derive(tt.status, tt.completeness))
		})
	}
}

func TestRecalculate(t *testing.T) {
	m := NewMachine()

	t.Run("advances phase with the score", func(t *testing.T) {
		a := &entity.Analysis{Status: constant.StatusInProgress, CurrentPhase: constant.PhaseAnalysis}
		m.Recalculate(a, 45)
		assert.Equal(t, constant.PhaseStrategy, a.CurrentPhase)
		assert.Equal(t, 45, a.Completeness)
	})

	t.Run("never regresses the phase in normal flow", func(t *testing.T) {
		a := &entity.Analysis{Status: constant.StatusInProgress, CurrentPhase: constant.PhaseTestPlanning, Completeness: 75}
		m.Recalculate(a, 40)
		assert.Equal(t, constant.PhaseTestPlanning, a.CurrentPhase)
		assert.Equal(t, 40, a.Completeness, "score still tracks the data even when the phase holds")
	})

	t.Run("reopened analyses may regress", func(t *testing.T) {
		a := &entity.Analysis{Status: constant.StatusReopened, CurrentPhase: constant.PhaseTestPlanning, Completeness: 75}
		m.Recalculate(a, 20)
		assert.Equal(t, constant.PhaseAnalysis, a.CurrentPhase)
	})

	t.Run("clamps out-of-range scores", func(t *testing.T) {
		a := &entity.Analysis{Status: constant.StatusInProgress, CurrentPhase: constant.PhaseAnalysis}
		m.Recalculate(a, 130)
		assert.Equal(t, 100, a.Completeness)
		m.Recalculate(a, -5)
		assert.Equal(t, 0, a.Completeness)
	})
}

func TestSubmit(t *testing.T) {
	m := NewMachine()

	t.Run("marks phase ready to advance", func(t *testing.T) {
		a := &entity.Analysis{Status: constant.StatusInProgress, CurrentPhase: constant.PhaseAnalysis}
		require.NoError(t, m.Submit(a))
		assert.Equal(t, constant.StatusReadyToAdvance, a.Status)
		assert.Equal(t, constant.PhaseAnalysis, a.CurrentPhase)
	})

	t.Run("submitting the last phase completes the analysis", func(t *testing.T) {
		a := &entity.Analysis{Status: constant.StatusInProgress, CurrentPhase: constant.PhaseTestPlanning, Completeness: 80}
		require.NoError(t, m.Submit(a))
		assert.Equal(t, constant.StatusCompleted, a.Status)
		assert.Equal(t, constant.PhaseCompleted, a.CurrentPhase)
		assert.Equal(t, 100, a.Completeness)
	})

	t.Run("idempotent on already-submitted states", func(t *testing.T) {
		for _, status := range []constant.AnalysisStatus{
			constant.StatusReadyToAdvance,
			constant.StatusSubmitted,
			constant.StatusCompleted,
		} {
			a := &entity.Analysis{Status: status, CurrentPhase: constant.PhaseStrategy}
			require.NoError(t, m.Submit(a))
			assert.Equal(t, status, a.Status)
			assert.Equal(t, constant.PhaseStrategy, a.CurrentPhase)
		}
	})
}

func TestAdvance(t *testing.T) {
	m := NewMachine()

	t.Run("moves exactly one step", func(t *testing.T) {
		a := &entity.Analysis{Status: constant.StatusReadyToAdvance, CurrentPhase: constant.PhaseAnalysis}
		require.NoError(t, m.Advance(a))
		assert.Equal(t, constant.PhaseStrategy, a.CurrentPhase)
		assert.Equal(t, constant.StatusInProgress, a.Status)

		require.NoError(t, m.Advance(a))
		assert.Equal(t, constant.PhaseTestPlanning, a.CurrentPhase)
	})

	t.Run("advancing past the last phase completes", func(t *testing.T) {
		a := &entity.Analysis{Status: constant.StatusReadyToAdvance, CurrentPhase: constant.PhaseTestPlanning}
		require.NoError(t, m.Advance(a))
		assert.Equal(t, constant.StatusCompleted, a.Status)
		assert.Equal(t, constant.PhaseCompleted, a.CurrentPhase)
	})

	t.Run("advancing a completed analysis conflicts", func(t *testing.T) {
		a := &entity.Analysis{Status: constant.StatusCompleted, CurrentPhase: constant.PhaseCompleted}
		err := m.Advance(a)
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	})
}

func TestReopen(t *testing.T) {
	m := NewMachine()

	t.Run("reopens a completed analysis", func(t *testing.T) {
		a := &entity.Analysis{Status: constant.StatusCompleted, CurrentPhase: constant.PhaseCompleted, Completeness: 100}
		require.NoError(t, m.Reopen(a, "missed an integration requirement"))

		assert.Equal(t, constant.StatusReopened, a.Status)
		assert.Equal(t, constant.PhaseTestPlanning, a.CurrentPhase, "phase re-derives from the score")
		require.Len(t, a.ReopenEvents, 1)
		assert.Equal(t, "missed an integration requirement", a.ReopenEvents[0].Reason)
		assert.False(t, a.ReopenEvents[0].ReopenedAt.IsZero())
	})

	t.Run("reopens submitted states", func(t *testing.T) {
		for _, status := range []constant.AnalysisStatus{constant.StatusSubmitted, constant.StatusReadyToAdvance} {
			a := &entity.Analysis{Status: status, CurrentPhase: constant.PhaseStrategy, Completeness: 40}
			require.NoError(t, m.Reopen(a, "revisit"))
			assert.Equal(t, constant.StatusReopened, a.Status)
		}
	})

	t.Run("append-only audit trail", func(t *testing.T) {
		a := &entity.Analysis{Status: constant.StatusCompleted, CurrentPhase: constant.PhaseCompleted, Completeness: 100}
		require.NoError(t, m.Reopen(a, "first"))
		a.Status = constant.StatusCompleted
		require.NoError(t, m.Reopen(a, "second"))
		require.Len(t, a.ReopenEvents, 2)
		assert.Equal(t, "first", a.ReopenEvents[0].Reason)
		assert.Equal(t, "second", a.ReopenEvents[1].Reason)
	})

	t.Run("active analyses cannot reopen", func(t *testing.T) {
		for _, status := range []constant.AnalysisStatus{constant.StatusInProgress, constant.StatusReopened} {
			a := &entity.Analysis{Status: status, CurrentPhase: constant.PhaseAnalysis}
			err := m.Reopen(a, "nope")
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
			assert.Empty(t, a.ReopenEvents)
		}
	})
}
