package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-reqanalyzer-be/internal/constant"
	"ai-reqanalyzer-be/internal/entity"
	"ai-reqanalyzer-be/internal/repository/specification"
	"ai-reqanalyzer-be/internal/repository/unitofwork"
	"ai-reqanalyzer-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.AnalysisRepository())
	assert.NotNil(t, uow.MessageRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	userId := uuid.New()

	t.Run("Analysis round trip", func(t *testing.T) {
		analysis := &entity.Analysis{
			Id:           uuid.New(),
			UserId:       userId,
			Title:        "integration-" + uuid.NewString(),
			Status:       constant.StatusInProgress,
			CurrentPhase: constant.PhaseAnalysis,
			CreatedAt:    time.Now(),
		}
		require.NoError(t, uow.AnalysisRepository().Create(context.Background(), analysis))
		defer uow.AnalysisRepository().Delete(context.Background(), analysis.Id)

		found, err := uow.AnalysisRepository().FindOne(context.Background(),
			specification.ByID{ID: analysis.Id},
			specification.UserOwnedBy{UserID: userId},
		)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, analysis.Title, found.Title)
		assert.Nil(t, found.StartedAt)
	})

	t.Run("Conditional start claim", func(t *testing.T) {
		analysis := &entity.Analysis{
			Id:           uuid.New(),
			UserId:       userId,
			Title:        "claim-" + uuid.NewString(),
			Status:       constant.StatusInProgress,
			CurrentPhase: constant.PhaseAnalysis,
			CreatedAt:    time.Now(),
		}
		require.NoError(t, uow.AnalysisRepository().Create(context.Background(), analysis))
		defer uow.AnalysisRepository().Delete(context.Background(), analysis.Id)

		won, err := uow.AnalysisRepository().MarkStartedIfNot(context.Background(), analysis.Id, time.Now())
		require.NoError(t, err)
		assert.True(t, won)

		won, err = uow.AnalysisRepository().MarkStartedIfNot(context.Background(), analysis.Id, time.Now())
		require.NoError(t, err)
		assert.False(t, won, "second claim must observe zero affected rows")
	})

	t.Run("Message aggregation", func(t *testing.T) {
		analysis := &entity.Analysis{
			Id:           uuid.New(),
			UserId:       userId,
			Title:        "counts-" + uuid.NewString(),
			Status:       constant.StatusInProgress,
			CurrentPhase: constant.PhaseAnalysis,
			CreatedAt:    time.Now(),
		}
		require.NoError(t, uow.AnalysisRepository().Create(context.Background(), analysis))
		defer uow.AnalysisRepository().Delete(context.Background(), analysis.Id)

		frCat := constant.CategoryFunctionalRequirements
		messages := []*entity.Message{
			{Id: uuid.New(), AnalysisId: analysis.Id, Role: constant.RoleUser, MessageType: constant.TypeAnswer, Content: "a1", Category: &frCat, CreatedAt: time.Now()},
			{Id: uuid.New(), AnalysisId: analysis.Id, Role: constant.RoleUser, MessageType: constant.TypeAnswer, Content: "a2", CreatedAt: time.Now()},
			{Id: uuid.New(), AnalysisId: analysis.Id, Role: constant.RoleAssistant, MessageType: constant.TypeQuestion, Content: "q1", CreatedAt: time.Now()},
		}
		for _, m := range messages {
			require.NoError(t, uow.MessageRepository().Create(context.Background(), m))
		}
		defer uow.MessageRepository().DeleteByAnalysisId(context.Background(), analysis.Id)

		counts, err := uow.MessageRepository().CountUserMessages(context.Background(), analysis.Id)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts.TotalUser)
		assert.Equal(t, int64(1), counts.PerCategory[string(constant.CategoryFunctionalRequirements)])
	})
}
