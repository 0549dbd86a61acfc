package detection

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler drives the detection job on a fixed interval. A manual trigger
// may fire while a scheduled run is in flight; dedup makes the overlap
// harmless, so no coordination beyond the ticker is needed.
type Scheduler struct {
	service  *Service
	interval time.Duration
	log      *zap.Logger
	stopCh   chan struct{}
}

func NewScheduler(service *Service, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Scheduler{
		service:  service,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start blocks until Stop is called. Run it in a goroutine.
func (s *Scheduler) Start() {
	s.log.Info("detection scheduler started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stopCh:
			s.log.Info("detection scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if _, err := s.service.RunDetectionJob(ctx); err != nil {
		// A run that cannot even start must be loud; silence here would
		// erode trust in "no anomalies found".
		s.log.Error("scheduled detection run failed", zap.Error(err))
	}
}
