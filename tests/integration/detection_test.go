package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/seu-repo/siges-solar/internal/adapter/cache"
	pgstore "github.com/seu-repo/siges-solar/internal/adapter/storage/postgres"
	"github.com/seu-repo/siges-solar/internal/domain"
	anomalysvc "github.com/seu-repo/siges-solar/internal/service/anomaly"
	"github.com/seu-repo/siges-solar/internal/service/detection"
)

func seedDevice(t *testing.T, env *TestEnv, deviceID string, capacity float64) {
	t.Helper()
	ctx := context.Background()

	site := domain.Site{ID: "site-1", Name: "Test Plant", City: "Fortaleza", State: "CE", Country: "BR"}
	if err := env.DB.WithContext(ctx).Save(&site).Error; err != nil {
		t.Fatalf("seed site: %v", err)
	}

	deviceRepo := pgstore.NewDeviceRepository(env.DB, env.Logger)
	device := domain.Device{
		ID:            deviceID,
		Name:          "Integration Inverter",
		CapacityWatts: capacity,
		Status:        domain.DeviceStatusActive,
		SiteID:        site.ID,
		InstalledAt:   time.Now().AddDate(-1, 0, 0),
	}
	if err := deviceRepo.Save(ctx, &device); err != nil {
		t.Fatalf("seed device: %v", err)
	}
}

// seedReadings writes hourly readings whose daily sums land on the given
// per-day totals, most recent day last.
func seedReadings(t *testing.T, env *TestEnv, deviceID string, dailyTotals []float64) {
	t.Helper()
	ctx := context.Background()

	readingRepo := pgstore.NewReadingRepository(env.DB, env.Logger)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	var readings []domain.EnergyReading
	for i, total := range dailyTotals {
		day := today.AddDate(0, 0, -(len(dailyTotals) - i))
		perHour := total / 10
		for h := 7; h < 17; h++ {
			readings = append(readings, domain.EnergyReading{
				DeviceID:  deviceID,
				Timestamp: day.Add(time.Duration(h) * time.Hour),
				EnergyKWh: perHour,
				PowerW:    perHour,
			})
		}
	}
	if err := readingRepo.SaveBatch(ctx, readings); err != nil {
		t.Fatalf("seed readings: %v", err)
	}
}

func TestDetectionRun_PersistsAndDeduplicates(t *testing.T) {
	env := SetupTestEnvironment(t)
	CleanDatabase(t, env.DB)
	ctx := context.Background()

	// 14 healthy days with one dead day in the middle
	totals := make([]float64, 14)
	for i := range totals {
		totals[i] = 20000
	}
	totals[6] = 0

	seedDevice(t, env, "int-dev-1", 5000)
	seedReadings(t, env, "int-dev-1", totals)

	deviceRepo := pgstore.NewDeviceRepository(env.DB, env.Logger)
	readingRepo := pgstore.NewReadingRepository(env.DB, env.Logger)
	anomalyRepo := pgstore.NewAnomalyRepository(env.DB, env.Logger)

	service := detection.NewService(deviceRepo, readingRepo, anomalyRepo, nil, 14, env.Logger)

	// First run persists the dead-day anomaly
	first, err := service.RunDetectionJob(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Processed != 1 {
		t.Errorf("expected 1 processed device, got %d", first.Processed)
	}
	if first.NewAnomalies == 0 {
		t.Fatal("expected new anomalies on first run")
	}

	// Second run over the same data creates nothing new
	second, err := service.RunDetectionJob(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.NewAnomalies != 0 {
		t.Errorf("second run: expected 0 new anomalies, got %d", second.NewAnomalies)
	}
	if second.AnomaliesFound != first.AnomaliesFound {
		t.Errorf("second run found %d, first found %d", second.AnomaliesFound, first.AnomaliesFound)
	}

	var count int64
	if err := env.DB.Model(&domain.Anomaly{}).Count(&count).Error; err != nil {
		t.Fatalf("count anomalies: %v", err)
	}
	if int(count) != first.NewAnomalies {
		t.Errorf("expected %d stored anomalies, got %d", first.NewAnomalies, count)
	}
}

func TestAnomalyUniqueIndex_RejectsDuplicates(t *testing.T) {
	env := SetupTestEnvironment(t)
	CleanDatabase(t, env.DB)
	ctx := context.Background()

	seedDevice(t, env, "int-dev-2", 5000)
	anomalyRepo := pgstore.NewAnomalyRepository(env.DB, env.Logger)

	start := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	mk := func() *domain.Anomaly {
		return &domain.Anomaly{
			ID:         uuid.NewString(),
			DeviceID:   "int-dev-2",
			Type:       domain.AnomalyZeroProduction,
			Severity:   domain.SeverityCritical,
			StartDate:  start,
			EndDate:    start,
			Status:     domain.StatusOpen,
			DetectedAt: time.Now(),
		}
	}

	if err := anomalyRepo.Insert(ctx, mk()); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := anomalyRepo.Insert(ctx, mk())
	if !errors.Is(err, domain.ErrDuplicateAnomaly) {
		t.Fatalf("expected ErrDuplicateAnomaly from the unique index, got %v", err)
	}

	// Same key but a different period is a distinct anomaly
	other := mk()
	other.StartDate = start.AddDate(0, 0, 1)
	other.EndDate = other.StartDate
	if err := anomalyRepo.Insert(ctx, other); err != nil {
		t.Fatalf("insert with different period: %v", err)
	}
}

func TestSumDailyEnergy_GroupsByDay(t *testing.T) {
	env := SetupTestEnvironment(t)
	CleanDatabase(t, env.DB)
	ctx := context.Background()

	seedDevice(t, env, "int-dev-3", 5000)
	seedReadings(t, env, "int-dev-3", []float64{1000, 2000, 3000})

	readingRepo := pgstore.NewReadingRepository(env.DB, env.Logger)
	now := time.Now().UTC()
	series, err := readingRepo.SumDailyEnergy(ctx, "int-dev-3", now.AddDate(0, 0, -5), now)
	if err != nil {
		t.Fatalf("sum daily energy: %v", err)
	}

	if len(series) != 3 {
		t.Fatalf("expected 3 daily buckets, got %d", len(series))
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Date.After(series[i-1].Date) {
			t.Errorf("expected ascending dates, got %v then %v", series[i-1].Date, series[i].Date)
		}
	}
	want := []float64{1000, 2000, 3000}
	for i, bucket := range series {
		if diff := bucket.TotalEnergy - want[i]; diff > 0.01 || diff < -0.01 {
			t.Errorf("bucket %d: expected total %.0f, got %f", i, want[i], bucket.TotalEnergy)
		}
	}
}

func TestAnomalyLifecycleAndStats_WithRedis(t *testing.T) {
	env := SetupTestEnvironment(t)
	CleanDatabase(t, env.DB)
	ctx := context.Background()

	seedDevice(t, env, "int-dev-4", 5000)
	anomalyRepo := pgstore.NewAnomalyRepository(env.DB, env.Logger)

	start := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	loss := 2480.0
	anomaly := &domain.Anomaly{
		ID:               uuid.NewString(),
		DeviceID:         "int-dev-4",
		Type:             domain.AnomalyZeroProduction,
		Severity:         domain.SeverityCritical,
		StartDate:        start,
		EndDate:          start,
		Status:           domain.StatusOpen,
		EstimatedLossKWh: &loss,
		DetectedAt:       time.Now(),
	}
	if err := anomalyRepo.Insert(ctx, anomaly); err != nil {
		t.Fatalf("insert anomaly: %v", err)
	}

	kv, err := cache.NewRedisCache(env.RedisURL, env.Logger)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	defer kv.Close()

	service := anomalysvc.NewService(anomalyRepo, kv, time.Minute, env.Logger)

	report, err := service.Stats(ctx, "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if report.Total != 1 || report.ByStatus[domain.StatusOpen] != 1 {
		t.Errorf("unexpected initial report: %+v", report)
	}

	if _, err := service.Acknowledge(ctx, anomaly.ID, "operator"); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if _, err := service.Resolve(ctx, anomaly.ID, "tech", "fuse replaced"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// The transition invalidated the cached report; the rebuild sees RESOLVED
	report, err = service.Stats(ctx, "")
	if err != nil {
		t.Fatalf("stats after resolve: %v", err)
	}
	if report.ByStatus[domain.StatusResolved] != 1 {
		t.Errorf("expected 1 RESOLVED in rebuilt report, got %+v", report.ByStatus)
	}

	stored, err := anomalyRepo.FindByID(ctx, anomaly.ID)
	if err != nil {
		t.Fatalf("reload anomaly: %v", err)
	}
	if stored.Status != domain.StatusResolved {
		t.Errorf("expected RESOLVED persisted, got %s", stored.Status)
	}
	if stored.ResolutionNotes != "fuse replaced" {
		t.Errorf("expected notes persisted, got %q", stored.ResolutionNotes)
	}
}
