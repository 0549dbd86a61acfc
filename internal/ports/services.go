package ports

import (
	"context"
	"time"

	"github.com/seu-repo/siges-solar/internal/domain"
)

type DeviceService interface {
	GetDevice(ctx context.Context, id string) (*domain.Device, error)
	ListDevices(ctx context.Context, filter map[string]interface{}) ([]domain.Device, error)
	UpdateStatus(ctx context.Context, id string, status domain.DeviceStatus) error
}

// DetectionService runs the batch anomaly analysis.
type DetectionService interface {
	// RunDetectionJob analyzes every active device. Per-device failures are
	// logged and counted but do not abort the run; a failure to even list
	// devices aborts the whole run.
	RunDetectionJob(ctx context.Context) (*domain.DetectionRunSummary, error)

	// DetectForDevice runs the detector set against one device without
	// persisting anything. windowDays <= 0 selects the configured default.
	DetectForDevice(ctx context.Context, deviceID string, windowDays int) ([]domain.Anomaly, error)
}

// AnomalyService owns the resolution workflow and the read side.
type AnomalyService interface {
	Acknowledge(ctx context.Context, id, actor string) (*domain.Anomaly, error)
	Resolve(ctx context.Context, id, actor, notes string) (*domain.Anomaly, error)
	MarkFalsePositive(ctx context.Context, id, actor, notes string) (*domain.Anomaly, error)
	GetAnomaly(ctx context.Context, id string) (*domain.Anomaly, error)
	ListForDevice(ctx context.Context, deviceID string, filter AnomalyFilter) ([]domain.Anomaly, error)
	ListAll(ctx context.Context, filter AnomalyFilter) ([]domain.Anomaly, int64, error)
	Stats(ctx context.Context, deviceID string) (*domain.StatsReport, error)
}

// Cache is the shared key/value cache used for read-side hot paths.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}
