package detection

import (
	"math"
	"testing"
	"time"

	"github.com/seu-repo/siges-solar/internal/domain"
)

const testCapacity = 5000.0 // watts

func mkSeries(start time.Time, totals ...float64) []domain.DailyAggregate {
	series := make([]domain.DailyAggregate, len(totals))
	for i, total := range totals {
		series[i] = domain.DailyAggregate{
			Date:        start.AddDate(0, 0, i),
			TotalEnergy: total,
		}
	}
	return series
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestDetectZeroProduction_FlagsDeadDay(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := mkSeries(start, 2000, 2100, 1950, 2050, 20, 2000, 2080)

	findings := DetectZeroProduction(series, testCapacity)

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != domain.AnomalyZeroProduction {
		t.Errorf("expected ZERO_PRODUCTION, got %s", f.Type)
	}
	deadDay := start.AddDate(0, 0, 4)
	if !f.StartDate.Equal(deadDay) || !f.EndDate.Equal(deadDay) {
		t.Errorf("expected single-day period on %v, got %v..%v", deadDay, f.StartDate, f.EndDate)
	}
	if f.Details.ActualValue == nil || !approxEqual(*f.Details.ActualValue, 20) {
		t.Errorf("expected actual 20, got %v", f.Details.ActualValue)
	}
	if f.Details.ExpectedValue == nil || !approxEqual(*f.Details.ExpectedValue, 2500) {
		t.Errorf("expected expected value 2500 (50%% of capacity), got %v", f.Details.ExpectedValue)
	}
	if f.EstimatedLossKWh == nil || !approxEqual(*f.EstimatedLossKWh, 2480) {
		t.Errorf("expected loss 2480, got %v", f.EstimatedLossKWh)
	}
}

func TestDetectZeroProduction_ThresholdIsInclusive(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// 1% of 5000 W is 50: a day at exactly 50 fires, a day at 51 does not.
	atThreshold := DetectZeroProduction(mkSeries(start, 50), testCapacity)
	if len(atThreshold) != 1 {
		t.Errorf("day at exact threshold: expected 1 finding, got %d", len(atThreshold))
	}

	aboveThreshold := DetectZeroProduction(mkSeries(start, 51), testCapacity)
	if len(aboveThreshold) != 0 {
		t.Errorf("day just above threshold: expected no findings, got %d", len(aboveThreshold))
	}
}

func TestDetectSignificantDrop_FlagsDayBelowHalfMean(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// mean = 1000, cutoff = 500; only the 400 day is below it
	series := mkSeries(start, 1200, 1100, 1300, 400, 1000)

	findings := DetectSignificantDrop(series, testCapacity)

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != domain.AnomalySignificantDrop {
		t.Errorf("expected SIGNIFICANT_DROP, got %s", f.Type)
	}
	if f.Details.DeviationPercent == nil || !approxEqual(*f.Details.DeviationPercent, 60) {
		t.Errorf("expected 60%% deviation, got %v", f.Details.DeviationPercent)
	}
	if f.EstimatedLossKWh == nil || !approxEqual(*f.EstimatedLossKWh, 600) {
		t.Errorf("expected loss 600, got %v", f.EstimatedLossKWh)
	}
}

func TestDetectSignificantDrop_CutoffIsExclusive(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// mean = 1000, cutoff = 500; the 500 day sits exactly on the cutoff
	series := mkSeries(start, 500, 1000, 1500)

	if findings := DetectSignificantDrop(series, testCapacity); len(findings) != 0 {
		t.Errorf("day at exact cutoff: expected no findings, got %d", len(findings))
	}
}

func TestDetectSignificantDrop_IgnoresZeroDays(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// zero days belong to ZERO_PRODUCTION, not the drop detector
	series := mkSeries(start, 0, 1000, 1000, 1000)

	if findings := DetectSignificantDrop(series, testCapacity); len(findings) != 0 {
		t.Errorf("expected zero days to be skipped, got %d findings", len(findings))
	}
}

func TestDetectSignificantDrop_WindowTooShort(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := mkSeries(start, 1000, 100)

	if findings := DetectSignificantDrop(series, testCapacity); len(findings) != 0 {
		t.Errorf("expected no findings below %d days, got %d", dropMinDays, len(findings))
	}
}

func TestDetectGradualDegradation_FlagsSteadyDecline(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// 14 days dropping 10/day from 500: slope -10, decline 130, mean 435
	totals := make([]float64, 14)
	for i := range totals {
		totals[i] = 500 - 10*float64(i)
	}
	series := mkSeries(start, totals...)

	findings := DetectGradualDegradation(series, testCapacity)

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != domain.AnomalyGradualDegradation {
		t.Errorf("expected GRADUAL_DEGRADATION, got %s", f.Type)
	}
	if !f.StartDate.Equal(series[0].Date) || !f.EndDate.Equal(series[13].Date) {
		t.Errorf("expected period spanning the window, got %v..%v", f.StartDate, f.EndDate)
	}
	slope, ok := f.Details.Context["slope_per_day"].(float64)
	if !ok || math.Abs(slope-(-10)) > 1e-6 {
		t.Errorf("expected slope -10/day, got %v", f.Details.Context["slope_per_day"])
	}
	if f.EstimatedLossKWh != nil {
		t.Error("degradation carries no per-day loss estimate")
	}
}

func TestDetectGradualDegradation_WindowTooShort(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := mkSeries(start, 600, 500, 400, 300, 200, 100)

	if findings := DetectGradualDegradation(series, testCapacity); len(findings) != 0 {
		t.Errorf("expected no findings below %d days, got %d", degradationMinDays, len(findings))
	}
}

func TestDetectGradualDegradation_IgnoresMildOrRisingTrend(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	rising := make([]float64, 14)
	for i := range rising {
		rising[i] = 400 + 10*float64(i)
	}
	if findings := DetectGradualDegradation(mkSeries(start, rising...), testCapacity); len(findings) != 0 {
		t.Errorf("rising trend: expected no findings, got %d", len(findings))
	}

	// slope -1/day over 14 days: decline 13 is well under 15% of the mean
	mild := make([]float64, 14)
	for i := range mild {
		mild[i] = 500 - float64(i)
	}
	if findings := DetectGradualDegradation(mkSeries(start, mild...), testCapacity); len(findings) != 0 {
		t.Errorf("mild decline: expected no findings, got %d", len(findings))
	}
}

func TestDetectSensorSpike_FlagsImplausibleReading(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// physical max = 5000 * 8 = 40000, cutoff = 60000
	series := mkSeries(start, 20000, 70000, 19500)

	findings := DetectSensorSpike(series, testCapacity)

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != domain.AnomalySensorSpike {
		t.Errorf("expected SENSOR_SPIKE, got %s", f.Type)
	}
	if f.Details.DeviationPercent == nil || !approxEqual(*f.Details.DeviationPercent, 75) {
		t.Errorf("expected 75%% above physical max, got %v", f.Details.DeviationPercent)
	}
	if f.EstimatedLossKWh != nil {
		t.Error("sensor spikes are metering faults, no loss estimate expected")
	}
}

func TestDetectSensorSpike_CutoffIsExclusive(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := mkSeries(start, 60000) // exactly 1.5x the physical max

	if findings := DetectSensorSpike(series, testCapacity); len(findings) != 0 {
		t.Errorf("day at exact cutoff: expected no findings, got %d", len(findings))
	}
}

func TestDetectIntermittentFailure_FlagsGappedOutages(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// failure threshold = 250; failures on days 0, 3 and 6 with recoveries between
	series := mkSeries(start, 100, 2000, 2000, 100, 2000, 2000, 100)

	findings := DetectIntermittentFailure(series, testCapacity)

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != domain.AnomalyIntermittentFailure {
		t.Errorf("expected INTERMITTENT_FAILURE, got %s", f.Type)
	}
	if !f.StartDate.Equal(series[0].Date) || !f.EndDate.Equal(series[6].Date) {
		t.Errorf("expected period from first to last failure, got %v..%v", f.StartDate, f.EndDate)
	}
	// recovery mean 2000, three failure days at 100 each
	if f.EstimatedLossKWh == nil || !approxEqual(*f.EstimatedLossKWh, 5700) {
		t.Errorf("expected loss 5700, got %v", f.EstimatedLossKWh)
	}
}

func TestDetectIntermittentFailure_ConsecutiveFailuresAreNotIntermittent(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// two adjacent failure days: a continuous outage, not an intermittent one
	series := mkSeries(start, 100, 100, 2000, 2000, 2000)

	if findings := DetectIntermittentFailure(series, testCapacity); len(findings) != 0 {
		t.Errorf("expected no findings for adjacent failures, got %d", len(findings))
	}
}

func TestDetectIntermittentFailure_WindowTooShort(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := mkSeries(start, 100, 2000, 100, 2000)

	if findings := DetectIntermittentFailure(series, testCapacity); len(findings) != 0 {
		t.Errorf("expected no findings below %d days, got %d", intermittentMinDays, len(findings))
	}
}

func TestDetectBelowThreshold_FlagsPersistentLowOutput(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// baseline = 20000, cutoff = 4000; three of four producing days below it
	series := mkSeries(start, 3000, 3500, 4500, 3900)

	findings := DetectBelowThreshold(series, testCapacity)

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Type != domain.AnomalyBelowThreshold {
		t.Errorf("expected BELOW_THRESHOLD, got %s", f.Type)
	}
	if !f.StartDate.Equal(series[0].Date) || !f.EndDate.Equal(series[3].Date) {
		t.Errorf("expected period spanning the window, got %v..%v", f.StartDate, f.EndDate)
	}
	daysBelow, ok := f.Details.Context["days_below"].(int)
	if !ok || daysBelow != 3 {
		t.Errorf("expected 3 days below, got %v", f.Details.Context["days_below"])
	}
}

func TestDetectBelowThreshold_MinorityBelowDoesNotFire(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	series := mkSeries(start, 3000, 15000, 16000, 17000)

	if findings := DetectBelowThreshold(series, testCapacity); len(findings) != 0 {
		t.Errorf("expected no findings with a minority of low days, got %d", len(findings))
	}
}

func TestDetectBelowThreshold_ZeroDaysExcluded(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// zero days do not count toward the share; only two producing days, both healthy
	series := mkSeries(start, 0, 0, 15000, 16000)

	if findings := DetectBelowThreshold(series, testCapacity); len(findings) != 0 {
		t.Errorf("expected zero days to be excluded, got %d findings", len(findings))
	}
}

func TestDetectors_EmptySeriesIsQuiet(t *testing.T) {
	for i, detect := range Detectors {
		if findings := detect(nil, testCapacity); len(findings) != 0 {
			t.Errorf("detector %d produced %d findings on an empty series", i, len(findings))
		}
	}
}

func TestDetectors_DropAndBelowThresholdCanBothFire(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// mean = 6000, drop cutoff = 3000; baseline cutoff = 4000. The 2000 days
	// are both "a drop from the mean" and "below the absolute baseline" and
	// each detector reports independently.
	series := mkSeries(start, 2000, 2000, 14000)

	drops := DetectSignificantDrop(series, testCapacity)
	below := DetectBelowThreshold(series, testCapacity)

	if len(drops) != 2 {
		t.Errorf("expected 2 drop findings, got %d", len(drops))
	}
	if len(below) != 1 {
		t.Errorf("expected 1 below-threshold finding, got %d", len(below))
	}
}
