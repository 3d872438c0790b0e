package main

import (
	"context"
	"flag"
	"log"
	"os"

	"ai-reqanalyzer-be/internal/config"
	"ai-reqanalyzer-be/internal/pkg/logger"
	"ai-reqanalyzer-be/internal/repository/unitofwork"
	"ai-reqanalyzer-be/pkg/analysis/retention"
	"ai-reqanalyzer-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()

	dryRun := flag.Bool("dry-run", false, "preview the purge without deleting anything")
	keepLastUser := flag.Bool("keep-last-user", cfg.Retention.KeepLastUser, "also keep the user message preceding the kept assistant message")
	flag.Parse()

	if cfg.Database.Connection == "" {
		log.Fatal("DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal(err)
	}

	audit := logger.NewIsolatedLogger(cfg.App.RetentionLogPath)
	engine := retention.NewEngine(unitofwork.NewRepositoryFactory(db), audit)

	if *dryRun {
		color.Yellow("DRY RUN: no messages will be deleted")
	}

	summaries, err := engine.PurgeCompletedBatch(context.Background(), retention.BatchOptions{
		DryRun:       *dryRun,
		KeepLastUser: *keepLastUser,
	})
	if err != nil {
		color.Red("Failed to sweep completed analyses: %v", err)
		os.Exit(1)
	}

	deleted, kept, failed := 0, 0, 0
	for _, s := range summaries {
		if s.Error != "" {
			failed++
			color.Red("  %s: %s", s.AnalysisId, s.Error)
			continue
		}
		deleted += s.ToDeleteCount
		kept += len(s.KeptMessageIds)
		color.Green("  %s: %d deleted, %d kept (of %d)", s.AnalysisId, s.ToDeleteCount, len(s.KeptMessageIds), s.TotalMessages)
	}

	color.Cyan("Swept %d analyses: %d messages deleted, %d kept, %d failed", len(summaries), deleted, kept, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
