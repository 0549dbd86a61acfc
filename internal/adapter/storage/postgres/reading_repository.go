package postgres

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/siges-solar/internal/domain"
	"github.com/seu-repo/siges-solar/internal/ports"
)

type ReadingRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewReadingRepository(db *gorm.DB, log *zap.Logger) ports.ReadingRepository {
	return &ReadingRepository{
		db:  db,
		log: log,
	}
}

func (r *ReadingRepository) Save(ctx context.Context, reading *domain.EnergyReading) error {
	return r.db.WithContext(ctx).Create(reading).Error
}

func (r *ReadingRepository) SaveBatch(ctx context.Context, readings []domain.EnergyReading) error {
	if len(readings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(readings, 500).Error
}

// SumDailyEnergy pushes the daily rollup into SQL: one row per calendar day
// that has at least one reading, ascending. Days without readings simply do
// not appear; the detectors own gap handling.
func (r *ReadingRepository) SumDailyEnergy(ctx context.Context, deviceID string, from, to time.Time) ([]domain.DailyAggregate, error) {
	var aggregates []domain.DailyAggregate
	err := r.db.WithContext(ctx).Raw(`
		SELECT DATE(timestamp) AS date, SUM(energy_kwh) AS total_energy
		FROM energy_readings
		WHERE device_id = ? AND timestamp >= ? AND timestamp <= ?
		GROUP BY DATE(timestamp)
		ORDER BY date ASC
	`, deviceID, from, to).Scan(&aggregates).Error
	if err != nil {
		r.log.Error("Failed to aggregate daily energy",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return nil, err
	}
	return aggregates, nil
}
