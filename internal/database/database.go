package database

import (
	"fmt"

	"focustrack-go/internal/config"
	"focustrack-go/internal/logging"
	"focustrack-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(log *zap.Logger) {
	var err error
	dbConf := config.Conf.Database
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)

	// Create our custom GORM logger
	gormLogger := logging.NewGormZapLogger(log)
	gormLogger.LogLevel = logger.Warn

	// TranslateError turns driver-level unique violations into
	// gorm.ErrDuplicatedKey, which the points store relies on.
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})

	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	log.Info("Database connection established successfully.")
	runMigrations(log)
}

func runMigrations(log *zap.Logger) {
	// GORM's AutoMigrate will create tables, columns, and foreign keys.
	// Composite and custom indexes are handled separately below.
	err := DB.AutoMigrate(
		&models.User{},
		&models.StudySession{},
		&models.Break{},
		&models.SessionEvent{},
		&models.PointTransaction{},
	)
	if err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	// The (user_id, reason) uniqueness is the idempotency arbiter for the
	// points engine; ensure it exists even on databases migrated before the
	// gorm tag was added.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_points_user_reason ON point_transactions (user_id, reason);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_end ON study_sessions (user_id, end_time);`,
		`CREATE INDEX IF NOT EXISTS idx_events_session_time ON session_events (session_id, timestamp);`,
	}
	for _, stmt := range indexes {
		if err := DB.Exec(stmt).Error; err != nil {
			log.Fatal("Failed to create custom index", zap.Error(err))
		}
	}
	log.Info("Custom indexes ensured successfully.")
}
