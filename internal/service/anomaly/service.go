package anomaly

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/siges-solar/internal/domain"
	"github.com/seu-repo/siges-solar/internal/observability/telemetry"
	"github.com/seu-repo/siges-solar/internal/ports"
)

const (
	statsCacheKeyAll = "anomaly:stats"
	trendDays        = 30
)

// Service owns the anomaly resolution workflow and the read-side queries.
// Anomalies are never deleted; resolution only moves status forward.
type Service struct {
	repo     ports.AnomalyRepository
	cache    ports.Cache
	log      *zap.Logger
	statsTTL time.Duration
	now      func() time.Time
}

func NewService(repo ports.AnomalyRepository, cache ports.Cache, statsTTL time.Duration, log *zap.Logger) *Service {
	if statsTTL <= 0 {
		statsTTL = 2 * time.Minute
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		log:      log,
		statsTTL: statsTTL,
		now:      time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) GetAnomaly(ctx context.Context, id string) (*domain.Anomaly, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("anomaly %s: %w", id, domain.ErrNotFound)
	}
	return a, nil
}

func (s *Service) Acknowledge(ctx context.Context, id, actor string) (*domain.Anomaly, error) {
	return s.transition(ctx, id, func(a *domain.Anomaly) error {
		return a.Acknowledge(actor, s.now())
	})
}

func (s *Service) Resolve(ctx context.Context, id, actor, notes string) (*domain.Anomaly, error) {
	return s.transition(ctx, id, func(a *domain.Anomaly) error {
		return a.Resolve(actor, notes, s.now())
	})
}

func (s *Service) MarkFalsePositive(ctx context.Context, id, actor, notes string) (*domain.Anomaly, error) {
	return s.transition(ctx, id, func(a *domain.Anomaly) error {
		return a.MarkFalsePositive(actor, notes, s.now())
	})
}

// transition loads, mutates through the state machine, and persists. The
// state machine decides legality; this only plumbs storage around it.
func (s *Service) transition(ctx context.Context, id string, apply func(*domain.Anomaly) error) (*domain.Anomaly, error) {
	a, err := s.GetAnomaly(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := apply(a); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update anomaly %s: %w", id, err)
	}

	telemetry.AnomalyResolutionsTotal.WithLabelValues(string(a.Status)).Inc()
	s.invalidateStats(ctx, a.DeviceID)

	s.log.Info("anomaly status changed",
		zap.String("anomaly_id", a.ID),
		zap.String("device_id", a.DeviceID),
		zap.String("status", string(a.Status)),
	)
	return a, nil
}

func (s *Service) ListForDevice(ctx context.Context, deviceID string, filter ports.AnomalyFilter) ([]domain.Anomaly, error) {
	filter.DeviceID = deviceID
	anomalies, _, err := s.repo.FindAll(ctx, filter)
	return anomalies, err
}

func (s *Service) ListAll(ctx context.Context, filter ports.AnomalyFilter) ([]domain.Anomaly, int64, error) {
	return s.repo.FindAll(ctx, filter)
}

// Stats builds the read-only rollup, cache-aside with a short TTL. deviceID
// empty means fleet-wide.
func (s *Service) Stats(ctx context.Context, deviceID string) (*domain.StatsReport, error) {
	key := statsCacheKey(deviceID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
			var report domain.StatsReport
			if err := json.Unmarshal([]byte(cached), &report); err == nil {
				return &report, nil
			}
		}
	}

	report, err := s.buildStats(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, key, string(data), s.statsTTL); err != nil {
				s.log.Debug("failed to cache stats report", zap.Error(err))
			}
		}
	}
	return report, nil
}

func (s *Service) buildStats(ctx context.Context, deviceID string) (*domain.StatsReport, error) {
	report := &domain.StatsReport{
		DeviceID:    deviceID,
		ByType:      make(map[domain.AnomalyType]int64),
		BySeverity:  make(map[domain.AnomalySeverity]int64),
		ByStatus:    make(map[domain.AnomalyStatus]int64),
		GeneratedAt: s.now(),
	}

	byType, err := s.repo.CountGroupedBy(ctx, "anomaly_type", deviceID)
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	for _, g := range byType {
		report.ByType[domain.AnomalyType(g.Key)] = g.Count
		report.Total += g.Count
	}

	bySeverity, err := s.repo.CountGroupedBy(ctx, "severity", deviceID)
	if err != nil {
		return nil, fmt.Errorf("count by severity: %w", err)
	}
	for _, g := range bySeverity {
		report.BySeverity[domain.AnomalySeverity(g.Key)] = g.Count
	}

	byStatus, err := s.repo.CountGroupedBy(ctx, "status", deviceID)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	for _, g := range byStatus {
		report.ByStatus[domain.AnomalyStatus(g.Key)] = g.Count
	}

	loss, err := s.repo.SumEstimatedLoss(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("sum estimated loss: %w", err)
	}
	report.EstimatedLossKWh = loss

	since := s.now().AddDate(0, 0, -trendDays)
	trend, err := s.repo.Trend(ctx, deviceID, since)
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	report.Trend = trend

	return report, nil
}

func (s *Service) invalidateStats(ctx context.Context, deviceID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKeyAll); err != nil {
		s.log.Debug("failed to invalidate fleet stats cache", zap.Error(err))
	}
	if deviceID != "" {
		if err := s.cache.Delete(ctx, statsCacheKey(deviceID)); err != nil {
			s.log.Debug("failed to invalidate device stats cache", zap.Error(err))
		}
	}
}

func statsCacheKey(deviceID string) string {
	if deviceID == "" {
		return statsCacheKeyAll
	}
	return statsCacheKeyAll + ":" + deviceID
}
