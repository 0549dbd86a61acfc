package detection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/siges-solar/internal/adapter/queue"
	"github.com/seu-repo/siges-solar/internal/domain"
	"github.com/seu-repo/siges-solar/internal/observability/telemetry"
	"github.com/seu-repo/siges-solar/internal/ports"
)

const DefaultWindowDays = 14

// Service orchestrates aggregate -> detect -> persist for the fleet.
// Re-entrant: overlapping runs only produce deduplicated work.
type Service struct {
	devices   ports.DeviceRepository
	readings  ports.ReadingRepository
	anomalies ports.AnomalyRepository
	mq        queue.MessageQueue
	log       *zap.Logger

	windowDays int
	now        func() time.Time
}

func NewService(
	devices ports.DeviceRepository,
	readings ports.ReadingRepository,
	anomalies ports.AnomalyRepository,
	mq queue.MessageQueue,
	windowDays int,
	log *zap.Logger,
) *Service {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Service{
		devices:    devices,
		readings:   readings,
		anomalies:  anomalies,
		mq:         mq,
		log:        log,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Tests use it to pin the window.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RunDetectionJob analyzes every active device. One device failing is logged
// and counted; it never aborts the rest of the run. Failing to list devices
// aborts the whole run so a broken upstream cannot masquerade as a clean one.
func (s *Service) RunDetectionJob(ctx context.Context) (*domain.DetectionRunSummary, error) {
	started := s.now()
	devices, err := s.devices.ListActive(ctx)
	if err != nil {
		telemetry.DetectionRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("list active devices: %w", err)
	}

	summary := &domain.DetectionRunSummary{}
	for _, device := range devices {
		found, created, err := s.analyzeDevice(ctx, &device)
		if err != nil {
			summary.FailedDevices++
			telemetry.DeviceAnalysisFailures.Inc()
			s.log.Error("device analysis failed",
				zap.String("device_id", device.ID),
				zap.Error(err),
			)
			continue
		}
		summary.Processed++
		summary.AnomaliesFound += found
		summary.NewAnomalies += created
	}

	telemetry.DetectionRunsTotal.WithLabelValues("ok").Inc()
	telemetry.DetectionRunDuration.Observe(s.now().Sub(started).Seconds())

	s.log.Info("detection run completed",
		zap.Int("processed", summary.Processed),
		zap.Int("anomalies_found", summary.AnomaliesFound),
		zap.Int("new_anomalies", summary.NewAnomalies),
		zap.Int("failed_devices", summary.FailedDevices),
		zap.Duration("took", s.now().Sub(started)),
	)

	s.publish("detection.completed", summary)
	return summary, nil
}

// DetectForDevice runs the detector set against one device and returns the
// would-be anomalies without persisting them. Used by the manual
// single-device trigger.
func (s *Service) DetectForDevice(ctx context.Context, deviceID string, windowDays int) ([]domain.Anomaly, error) {
	device, err := s.devices.FindByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, fmt.Errorf("device %s: %w", deviceID, domain.ErrNotFound)
	}

	if windowDays <= 0 {
		windowDays = s.windowDays
	}
	findings, err := s.detect(ctx, device, windowDays)
	if err != nil {
		return nil, err
	}

	anomalies := make([]domain.Anomaly, 0, len(findings))
	for _, f := range findings {
		anomalies = append(anomalies, s.toAnomaly(device.ID, f))
	}
	return anomalies, nil
}

func (s *Service) analyzeDevice(ctx context.Context, device *domain.Device) (found, created int, err error) {
	findings, err := s.detect(ctx, device, s.windowDays)
	if err != nil {
		return 0, 0, err
	}

	for _, f := range findings {
		isNew, err := s.persist(ctx, device.ID, f)
		if err != nil {
			return found, created, err
		}
		found++
		if isNew {
			created++
		}
	}
	return found, created, nil
}

func (s *Service) detect(ctx context.Context, device *domain.Device, windowDays int) ([]Finding, error) {
	to := s.now()
	from := to.AddDate(0, 0, -windowDays)

	series, err := s.readings.SumDailyEnergy(ctx, device.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate daily energy for %s: %w", device.ID, err)
	}

	var findings []Finding
	for _, detect := range Detectors {
		findings = append(findings, detect(series, device.CapacityWatts)...)
	}
	return findings, nil
}

// persist applies the dedup policy: an equivalent stored anomaly means the
// finding is discarded untouched. The unique index backs the same rule for
// two runs racing past the lookup; the loser's insert is a benign duplicate.
func (s *Service) persist(ctx context.Context, deviceID string, f Finding) (bool, error) {
	existing, err := s.anomalies.FindEquivalent(ctx, deviceID, f.Type, f.StartDate, f.EndDate)
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	anomaly := s.toAnomaly(deviceID, f)
	if err := s.anomalies.Insert(ctx, &anomaly); err != nil {
		if errors.Is(err, domain.ErrDuplicateAnomaly) {
			s.log.Debug("concurrent run already persisted anomaly",
				zap.String("device_id", deviceID),
				zap.String("type", string(f.Type)),
			)
			return false, nil
		}
		return false, fmt.Errorf("insert anomaly: %w", err)
	}

	telemetry.AnomaliesDetectedTotal.WithLabelValues(string(anomaly.Type), string(anomaly.Severity)).Inc()
	s.publish("anomaly.detected", anomaly)
	return true, nil
}

func (s *Service) toAnomaly(deviceID string, f Finding) domain.Anomaly {
	return domain.Anomaly{
		ID:                uuid.NewString(),
		DeviceID:          deviceID,
		Type:              f.Type,
		Severity:          domain.SeverityFor(f.Type),
		StartDate:         f.StartDate,
		EndDate:           f.EndDate,
		Description:       f.Description,
		Details:           f.Details,
		Status:            domain.StatusOpen,
		RecommendedAction: domain.RecommendedActionFor(f.Type),
		EstimatedLossKWh:  f.EstimatedLossKWh,
		DetectedAt:        s.now(),
	}
}

// publish is best-effort: a down broker must not fail a detection run.
func (s *Service) publish(subject string, payload interface{}) {
	if s.mq == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("failed to marshal event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := s.mq.Publish(subject, data); err != nil {
		s.log.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
