package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"aat-go/internal/config"
	logging "aat-go/internal/logging"
	"aat-go/internal/models"
)

// DB is the shared connection, nil when persistence is disabled.
var DB *gorm.DB

// Init connects to Postgres and migrates the run tables.
func Init(conf config.DatabaseConfig, log *zap.Logger) error {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		conf.Host, conf.User, conf.Password, conf.DBName, conf.Port)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logging.NewGormZapLogger(log, logger.Warn),
		// Observation tables are written in one transaction per run.
		CreateBatchSize: 500,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully.")

	if err := runMigrations(db, log); err != nil {
		return err
	}
	DB = db
	return nil
}

func runMigrations(db *gorm.DB, log *zap.Logger) error {
	// AutoMigrate creates tables, columns and foreign keys but not the
	// composite index below.
	err := db.AutoMigrate(
		&models.AnalysisRun{},
		&models.FileSession{},
		&models.ApproachObservation{},
		&models.SpeedObservation{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	speedIndex := `CREATE INDEX IF NOT EXISTS idx_speed_group ON speed_observations (file_session_id, direction, image_type);`
	if err := db.Exec(speedIndex).Error; err != nil {
		return fmt.Errorf("failed to create index on speed observations: %w", err)
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}
