package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dealfolio/server/config"
	"dealfolio/server/internal/api"
	"dealfolio/server/internal/database"
	"dealfolio/server/internal/ingest"
	"dealfolio/server/internal/processor"
	"dealfolio/server/internal/queue"
	"dealfolio/server/internal/rents"
	"dealfolio/server/internal/scheduler"
	"dealfolio/server/internal/session"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	defaultMode, err := rents.ParseMode(cfg.Rents.DefaultMode)
	if err != nil {
		logger.WithError(err).Fatal("Invalid default valuation mode")
	}

	logger.Infof("Using database at: %s", cfg.DatabasePath)
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// The batch processor writes through gorm transactions
	gormDB, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		logger.WithError(err).Fatal("Failed to open gorm connection")
	}

	// Rent table snapshot; the server comes up with whatever the
	// ingestion collaborator last produced
	snapshot := rents.NewSnapshot(logger)
	ingestManager := ingest.NewManager(snapshot, cfg.Rents.ScriptPath, cfg.Rents.SnapshotPath, logger)
	if err := ingestManager.LoadSnapshot(); err != nil {
		logger.WithError(err).Warn("No rent snapshot loaded; rents resolve to zero until refresh")
	}

	sched := scheduler.NewScheduler(ingestManager, time.Duration(cfg.Rents.RefreshHours)*time.Hour, logger)
	sched.Start()
	defer sched.Stop()

	importQueue := queue.NewImportQueue(cfg.BatchProcessing.QueueSize, logger)
	batchProcessor := processor.NewBatchProcessor(gormDB, importQueue, cfg, logger)
	batchProcessor.Start()
	importQueue.Start()
	defer func() {
		importQueue.Close()
		batchProcessor.Stop()
	}()

	sessions := session.NewManager(session.Options{
		MaxHistory: cfg.Session.MaxHistory,
		Debounce:   time.Duration(cfg.Session.DebounceMillis) * time.Millisecond,
	}, time.Duration(cfg.Session.TTLMinutes)*time.Minute, logger)
	sessions.StartSweeper(5 * time.Minute)
	defer sessions.Close()

	handler := api.NewHandler(db, sessions, snapshot, importQueue, sched, defaultMode, logger)

	router := gin.Default()
	api.SetupRoutes(router, handler)

	logger.Infof("Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
