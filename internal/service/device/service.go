package device

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/siges-solar/internal/domain"
	"github.com/seu-repo/siges-solar/internal/ports"
)

const deviceCacheTTL = 30 * time.Second

// Service is the thin device directory facade. The directory itself is
// populated externally; this service only reads and flips status.
type Service struct {
	repo  ports.DeviceRepository
	cache ports.Cache
	log   *zap.Logger
}

func NewService(repo ports.DeviceRepository, cache ports.Cache, log *zap.Logger) ports.DeviceService {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func (s *Service) GetDevice(ctx context.Context, id string) (*domain.Device, error) {
	cacheKey := "device:" + id
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			var d domain.Device
			if err := json.Unmarshal([]byte(cached), &d); err == nil {
				return &d, nil
			}
		}
	}

	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("device %s: %w", id, domain.ErrNotFound)
	}

	if s.cache != nil {
		if data, err := json.Marshal(d); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(data), deviceCacheTTL); err != nil {
				s.log.Debug("failed to cache device", zap.Error(err))
			}
		}
	}
	return d, nil
}

func (s *Service) ListDevices(ctx context.Context, filter map[string]interface{}) ([]domain.Device, error) {
	return s.repo.FindAll(ctx, filter)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.DeviceStatus) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, "device:"+id); err != nil {
			s.log.Debug("failed to invalidate device cache", zap.Error(err))
		}
	}
	return nil
}
