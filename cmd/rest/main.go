package main

import (
	"context"
	"log"

	"ai-reqanalyzer-be/internal/bootstrap"
	"ai-reqanalyzer-be/internal/config"
	"ai-reqanalyzer-be/internal/pkg/logger"
	"ai-reqanalyzer-be/internal/server"
	"ai-reqanalyzer-be/internal/tracer"
	"ai-reqanalyzer-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	if err := container.NotifierService.Start(context.Background()); err != nil {
		log.Printf("Background Notifier Error: %v", err)
	}

	// 5. Initialize Server
	srvLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	srv := server.New(cfg, container, srvLogger)

	// 6. Run Server
	log.Fatal(srv.Run())
}
