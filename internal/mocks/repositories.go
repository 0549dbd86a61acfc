package mocks

import (
	"context"
	"time"

	"github.com/seu-repo/siges-solar/internal/domain"
	"github.com/seu-repo/siges-solar/internal/ports"
)

// MockDeviceRepository is a mock implementation of DeviceRepository
type MockDeviceRepository struct {
	SaveFunc         func(ctx context.Context, d *domain.Device) error
	FindByIDFunc     func(ctx context.Context, id string) (*domain.Device, error)
	FindAllFunc      func(ctx context.Context, filter map[string]interface{}) ([]domain.Device, error)
	ListActiveFunc   func(ctx context.Context) ([]domain.Device, error)
	UpdateStatusFunc func(ctx context.Context, id string, status domain.DeviceStatus) error
}

func (m *MockDeviceRepository) Save(ctx context.Context, d *domain.Device) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, d)
	}
	return nil
}

func (m *MockDeviceRepository) FindByID(ctx context.Context, id string) (*domain.Device, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockDeviceRepository) FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.Device, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx, filter)
	}
	return []domain.Device{}, nil
}

func (m *MockDeviceRepository) ListActive(ctx context.Context) ([]domain.Device, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return []domain.Device{}, nil
}

func (m *MockDeviceRepository) UpdateStatus(ctx context.Context, id string, status domain.DeviceStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

// MockReadingRepository is a mock implementation of ReadingRepository
type MockReadingRepository struct {
	SaveFunc           func(ctx context.Context, r *domain.EnergyReading) error
	SaveBatchFunc      func(ctx context.Context, rs []domain.EnergyReading) error
	SumDailyEnergyFunc func(ctx context.Context, deviceID string, from, to time.Time) ([]domain.DailyAggregate, error)
}

func (m *MockReadingRepository) Save(ctx context.Context, r *domain.EnergyReading) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, r)
	}
	return nil
}

func (m *MockReadingRepository) SaveBatch(ctx context.Context, rs []domain.EnergyReading) error {
	if m.SaveBatchFunc != nil {
		return m.SaveBatchFunc(ctx, rs)
	}
	return nil
}

func (m *MockReadingRepository) SumDailyEnergy(ctx context.Context, deviceID string, from, to time.Time) ([]domain.DailyAggregate, error) {
	if m.SumDailyEnergyFunc != nil {
		return m.SumDailyEnergyFunc(ctx, deviceID, from, to)
	}
	return []domain.DailyAggregate{}, nil
}

// MockAnomalyRepository is a mock implementation of AnomalyRepository.
// With no func overrides it behaves as an in-memory store that honors the
// dedup key, which is what most detection tests need.
type MockAnomalyRepository struct {
	Stored []domain.Anomaly

	InsertFunc           func(ctx context.Context, a *domain.Anomaly) error
	UpdateFunc           func(ctx context.Context, a *domain.Anomaly) error
	FindByIDFunc         func(ctx context.Context, id string) (*domain.Anomaly, error)
	FindEquivalentFunc   func(ctx context.Context, deviceID string, t domain.AnomalyType, start, end time.Time) (*domain.Anomaly, error)
	FindAllFunc          func(ctx context.Context, filter ports.AnomalyFilter) ([]domain.Anomaly, int64, error)
	CountGroupedByFunc   func(ctx context.Context, column string, deviceID string) ([]ports.GroupCount, error)
	SumEstimatedLossFunc func(ctx context.Context, deviceID string) (float64, error)
	TrendFunc            func(ctx context.Context, deviceID string, since time.Time) ([]domain.TrendBucket, error)
}

func (m *MockAnomalyRepository) Insert(ctx context.Context, a *domain.Anomaly) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, a)
	}
	for _, existing := range m.Stored {
		if existing.DeviceID == a.DeviceID && existing.Type == a.Type &&
			existing.StartDate.Equal(a.StartDate) && existing.EndDate.Equal(a.EndDate) {
			return domain.ErrDuplicateAnomaly
		}
	}
	m.Stored = append(m.Stored, *a)
	return nil
}

func (m *MockAnomalyRepository) Update(ctx context.Context, a *domain.Anomaly) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, a)
	}
	for i := range m.Stored {
		if m.Stored[i].ID == a.ID {
			m.Stored[i] = *a
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockAnomalyRepository) FindByID(ctx context.Context, id string) (*domain.Anomaly, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	for i := range m.Stored {
		if m.Stored[i].ID == id {
			a := m.Stored[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (m *MockAnomalyRepository) FindEquivalent(ctx context.Context, deviceID string, t domain.AnomalyType, start, end time.Time) (*domain.Anomaly, error) {
	if m.FindEquivalentFunc != nil {
		return m.FindEquivalentFunc(ctx, deviceID, t, start, end)
	}
	for i := range m.Stored {
		a := m.Stored[i]
		if a.DeviceID == deviceID && a.Type == t && a.StartDate.Equal(start) && a.EndDate.Equal(end) {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *MockAnomalyRepository) FindAll(ctx context.Context, filter ports.AnomalyFilter) ([]domain.Anomaly, int64, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx, filter)
	}
	var out []domain.Anomaly
	for _, a := range m.Stored {
		if filter.DeviceID != "" && a.DeviceID != filter.DeviceID {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (m *MockAnomalyRepository) CountGroupedBy(ctx context.Context, column string, deviceID string) ([]ports.GroupCount, error) {
	if m.CountGroupedByFunc != nil {
		return m.CountGroupedByFunc(ctx, column, deviceID)
	}
	counts := make(map[string]int64)
	for _, a := range m.Stored {
		if deviceID != "" && a.DeviceID != deviceID {
			continue
		}
		switch column {
		case "anomaly_type":
			counts[string(a.Type)]++
		case "severity":
			counts[string(a.Severity)]++
		case "status":
			counts[string(a.Status)]++
		}
	}
	var out []ports.GroupCount
	for k, v := range counts {
		out = append(out, ports.GroupCount{Key: k, Count: v})
	}
	return out, nil
}

func (m *MockAnomalyRepository) SumEstimatedLoss(ctx context.Context, deviceID string) (float64, error) {
	if m.SumEstimatedLossFunc != nil {
		return m.SumEstimatedLossFunc(ctx, deviceID)
	}
	total := 0.0
	for _, a := range m.Stored {
		if deviceID != "" && a.DeviceID != deviceID {
			continue
		}
		if a.EstimatedLossKWh != nil {
			total += *a.EstimatedLossKWh
		}
	}
	return total, nil
}

func (m *MockAnomalyRepository) Trend(ctx context.Context, deviceID string, since time.Time) ([]domain.TrendBucket, error) {
	if m.TrendFunc != nil {
		return m.TrendFunc(ctx, deviceID, since)
	}
	return []domain.TrendBucket{}, nil
}
