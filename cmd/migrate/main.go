package main

import (
	"fmt"
	"log"

	"github.com/chachabrian/sendit-backend/internal/config"
	"github.com/chachabrian/sendit-backend/internal/database"
	"github.com/chachabrian/sendit-backend/internal/logger"
)

// Applies the schema and exits
func main() {
	dbCfg, logCfg, err := config.LoadMigration()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := migrate(dbCfg, appLogger); err != nil {
		appLogger.WithFields(logger.Fields{"error": err.Error()}).Fatal("Migration failed")
	}
	appLogger.WithFields(logger.Fields{"driver": dbCfg.Driver}).Info("Migrations applied")
}

func migrate(cfg *config.DatabaseConfig, appLogger *logger.Logger) error {
	db, err := database.InitDB(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	return database.RunMigrations(db)
}
