package postgres

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/seu-repo/siges-solar/internal/domain"
)

// NewConnection initializes a PostgreSQL connection using GORM.
// TranslateError is on so unique-violation surfaces as gorm.ErrDuplicatedKey,
// which the anomaly repository maps to the domain dedup sentinel.
func NewConnection(url string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info("Connected to PostgreSQL")
	return db, nil
}

// RunMigrations creates/updates the schema, including the composite unique
// index on (device_id, anomaly_type, start_date, end_date) that enforces the
// anomaly dedup key at the storage layer.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Site{},
		&domain.Device{},
		&domain.EnergyReading{},
		&domain.Anomaly{},
	)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
