package ports

import (
	"context"
	"time"

	"github.com/seu-repo/siges-solar/internal/domain"
)

type DeviceRepository interface {
	Save(ctx context.Context, d *domain.Device) error
	FindByID(ctx context.Context, id string) (*domain.Device, error)
	FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.Device, error)
	ListActive(ctx context.Context) ([]domain.Device, error)
	UpdateStatus(ctx context.Context, id string, status domain.DeviceStatus) error
}

type ReadingRepository interface {
	Save(ctx context.Context, r *domain.EnergyReading) error
	SaveBatch(ctx context.Context, rs []domain.EnergyReading) error
	// SumDailyEnergy collapses raw readings into per-calendar-day totals,
	// ascending by date. Days with no readings are absent from the result.
	SumDailyEnergy(ctx context.Context, deviceID string, from, to time.Time) ([]domain.DailyAggregate, error)
}

// AnomalyFilter narrows anomaly queries. Zero values mean "no constraint".
type AnomalyFilter struct {
	DeviceID string
	Type     domain.AnomalyType
	Severity domain.AnomalySeverity
	Status   domain.AnomalyStatus
	Since    time.Time
	Limit    int
	Offset   int
}

// GroupCount is one bucket of a grouped anomaly count.
type GroupCount struct {
	Key   string
	Count int64
}

type AnomalyRepository interface {
	// Insert persists a new anomaly. Returns domain.ErrDuplicateAnomaly when
	// the dedup key (device, type, start, end) is already taken.
	Insert(ctx context.Context, a *domain.Anomaly) error
	Update(ctx context.Context, a *domain.Anomaly) error
	FindByID(ctx context.Context, id string) (*domain.Anomaly, error)
	FindEquivalent(ctx context.Context, deviceID string, t domain.AnomalyType, start, end time.Time) (*domain.Anomaly, error)
	FindAll(ctx context.Context, filter AnomalyFilter) ([]domain.Anomaly, int64, error)
	CountGroupedBy(ctx context.Context, column string, deviceID string) ([]GroupCount, error)
	SumEstimatedLoss(ctx context.Context, deviceID string) (float64, error)
	Trend(ctx context.Context, deviceID string, since time.Time) ([]domain.TrendBucket, error)
}
