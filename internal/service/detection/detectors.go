package detection

import (
	"fmt"
	"math"
	"time"

	"github.com/seu-repo/siges-solar/internal/domain"
)

// Detection thresholds. Capacity is the device rating in watts; daily totals
// are compared against capacity-derived values the same way the readings
// pipeline stores them.
const (
	zeroProductionRatio = 0.01 // day total <= 1% of capacity
	zeroExpectedRatio   = 0.5  // reported expectation: half of rated capacity

	dropFraction = 0.5 // more than 50% below window mean
	dropMinDays  = 3

	degradationMinDays = 7
	degradationMinLoss = 0.15 // >=15% of window mean lost across the window

	peakSunHours = 8.0 // hours/day near rated output, physical ceiling
	spikeFactor  = 1.5 // above physical max by this factor is a sensor fault

	nearZeroRatio       = 0.05 // <=5% of capacity counts as a failure day
	intermittentMinDays = 5
	minFailureDays      = 2
	minRecoveryDays     = 2

	avgSunHours           = 4.0 // hours/day for the expected baseline
	belowBaselineFraction = 0.2 // below 20% of baseline
	belowShare            = 0.5 // at least half of non-zero days
	belowMinDays          = 3
)

// Finding is an in-memory anomaly candidate produced by a detector. It has no
// identity or lifecycle until the persister accepts it.
type Finding struct {
	Type             domain.AnomalyType
	StartDate        time.Time
	EndDate          time.Time
	Description      string
	Details          domain.DetectionDetails
	EstimatedLossKWh *float64
}

// DetectorFunc is a pure detector: daily series plus device capacity in,
// zero or more findings out. No side effects.
type DetectorFunc func(series []domain.DailyAggregate, capacityWatts float64) []Finding

// Detectors is the registry the job runner iterates. Adding a detector means
// appending here; orchestration does not change.
var Detectors = []DetectorFunc{
	DetectZeroProduction,
	DetectSignificantDrop,
	DetectGradualDegradation,
	DetectSensorSpike,
	DetectIntermittentFailure,
	DetectBelowThreshold,
}

func fptr(v float64) *float64 { return &v }

func dayString(t time.Time) string { return t.Format("2006-01-02") }

func windowMean(series []domain.DailyAggregate) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range series {
		sum += d.TotalEnergy
	}
	return sum / float64(len(series))
}

// DetectZeroProduction flags any day whose total is at or below 1% of rated
// capacity. This is the one detector that uses <=: a flat-zero day must fire.
// Context keys: none.
func DetectZeroProduction(series []domain.DailyAggregate, capacityWatts float64) []Finding {
	var findings []Finding
	threshold := capacityWatts * zeroProductionRatio
	expected := capacityWatts * zeroExpectedRatio

	for _, day := range series {
		if day.TotalEnergy > threshold {
			continue
		}
		loss := expected - day.TotalEnergy
		findings = append(findings, Finding{
			Type:      domain.AnomalyZeroProduction,
			StartDate: day.Date,
			EndDate:   day.Date,
			Description: fmt.Sprintf(
				"No meaningful production on %s: %.2f recorded, at or below %.2f (1%% of %.0f W rated capacity)",
				dayString(day.Date), day.TotalEnergy, threshold, capacityWatts),
			Details: domain.DetectionDetails{
				Method:        "daily_total_vs_capacity",
				ExpectedValue: fptr(expected),
				ActualValue:   fptr(day.TotalEnergy),
				Threshold:     fptr(threshold),
			},
			EstimatedLossKWh: fptr(loss),
		})
	}
	return findings
}

// DetectSignificantDrop flags non-zero days more than 50% below the mean of
// the whole window. Needs at least 3 days of data.
// Context keys: "window_mean", "window_days".
func DetectSignificantDrop(series []domain.DailyAggregate, capacityWatts float64) []Finding {
	if len(series) < dropMinDays {
		return nil
	}

	mean := windowMean(series)
	if mean <= 0 {
		return nil
	}

	var findings []Finding
	cutoff := mean * (1 - dropFraction)
	for _, day := range series {
		if day.TotalEnergy <= 0 || day.TotalEnergy >= cutoff {
			continue
		}
		deviation := (mean - day.TotalEnergy) / mean * 100
		findings = append(findings, Finding{
			Type:      domain.AnomalySignificantDrop,
			StartDate: day.Date,
			EndDate:   day.Date,
			Description: fmt.Sprintf(
				"Production on %s dropped %.1f%% below the %d-day mean: %.2f against an average of %.2f",
				dayString(day.Date), deviation, len(series), day.TotalEnergy, mean),
			Details: domain.DetectionDetails{
				Method:           "deviation_from_window_mean",
				ExpectedValue:    fptr(mean),
				ActualValue:      fptr(day.TotalEnergy),
				DeviationPercent: fptr(deviation),
				Threshold:        fptr(cutoff),
				Context: map[string]interface{}{
					"window_mean": mean,
					"window_days": len(series),
				},
			},
			EstimatedLossKWh: fptr(mean - day.TotalEnergy),
		})
	}
	return findings
}

// DetectGradualDegradation fits an ordinary least-squares line over the window
// (x = day index, y = daily total) and flags a negative slope that implies at
// least a 15% decline of the window mean across the window. Needs >=7 days.
// The window size is bounded, so the closed-form formula is all that is needed.
// Context keys: "slope_per_day", "total_decline", "window_mean", "window_days".
func DetectGradualDegradation(series []domain.DailyAggregate, capacityWatts float64) []Finding {
	n := len(series)
	if n < degradationMinDays {
		return nil
	}

	mean := windowMean(series)
	if mean <= 0 {
		return nil
	}

	// slope = (n*Σxy - Σx*Σy) / (n*Σx² - (Σx)²)
	var sumX, sumY, sumXY, sumXX float64
	for i, day := range series {
		x := float64(i)
		sumX += x
		sumY += day.TotalEnergy
		sumXY += x * day.TotalEnergy
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return nil
	}
	slope := (fn*sumXY - sumX*sumY) / denom
	if slope >= 0 {
		return nil
	}

	totalDecline := -slope * float64(n-1)
	declinePercent := totalDecline / mean * 100
	if totalDecline < mean*degradationMinLoss {
		return nil
	}

	return []Finding{{
		Type:      domain.AnomalyGradualDegradation,
		StartDate: series[0].Date,
		EndDate:   series[n-1].Date,
		Description: fmt.Sprintf(
			"Output declining %.2f per day since %s; %.1f%% of the %d-day mean (%.2f) lost over the window",
			-slope, dayString(series[0].Date), declinePercent, n, mean),
		Details: domain.DetectionDetails{
			Method:           "least_squares_trend",
			ExpectedValue:    fptr(mean),
			DeviationPercent: fptr(declinePercent),
			Context: map[string]interface{}{
				"slope_per_day": slope,
				"total_decline": totalDecline,
				"window_mean":   mean,
				"window_days":   n,
			},
		},
	}}
}

// DetectSensorSpike flags days whose total exceeds 1.5x the physically
// plausible maximum (capacity times peak sun hours). Such values are metering
// faults, not production; no loss estimate is meaningful.
// Context keys: "physical_max".
func DetectSensorSpike(series []domain.DailyAggregate, capacityWatts float64) []Finding {
	physicalMax := capacityWatts * peakSunHours
	if physicalMax <= 0 {
		return nil
	}
	cutoff := physicalMax * spikeFactor

	var findings []Finding
	for _, day := range series {
		if day.TotalEnergy <= cutoff {
			continue
		}
		deviation := (day.TotalEnergy - physicalMax) / physicalMax * 100
		findings = append(findings, Finding{
			Type:      domain.AnomalySensorSpike,
			StartDate: day.Date,
			EndDate:   day.Date,
			Description: fmt.Sprintf(
				"Reading on %s is physically implausible: %.2f recorded, %.1f%% above the %.2f maximum (%.0f W x %.0fh peak sun)",
				dayString(day.Date), day.TotalEnergy, deviation, physicalMax, capacityWatts, peakSunHours),
			Details: domain.DetectionDetails{
				Method:           "physical_max_check",
				ExpectedValue:    fptr(physicalMax),
				ActualValue:      fptr(day.TotalEnergy),
				DeviationPercent: fptr(deviation),
				Threshold:        fptr(cutoff),
				Context: map[string]interface{}{
					"physical_max": physicalMax,
				},
			},
		})
	}
	return findings
}

// DetectIntermittentFailure looks for repeated near-zero days (at or below 5%
// of capacity) interleaved with recovery days. At least two failure days and
// two recovery days must be present, and some pair of consecutive failure
// days must be separated by more than one calendar day. Needs >=5 days.
// Context keys: "failure_days", "recovery_days".
func DetectIntermittentFailure(series []domain.DailyAggregate, capacityWatts float64) []Finding {
	if len(series) < intermittentMinDays {
		return nil
	}

	threshold := capacityWatts * nearZeroRatio
	var failures []domain.DailyAggregate
	var recoveryTotal float64
	recoveryCount := 0
	for _, day := range series {
		if day.TotalEnergy <= threshold {
			failures = append(failures, day)
		} else {
			recoveryTotal += day.TotalEnergy
			recoveryCount++
		}
	}
	if len(failures) < minFailureDays || recoveryCount < minRecoveryDays {
		return nil
	}

	gapFound := false
	for i := 1; i < len(failures); i++ {
		if failures[i].Date.Sub(failures[i-1].Date) > 24*time.Hour {
			gapFound = true
			break
		}
	}
	if !gapFound {
		return nil
	}

	recoveryMean := recoveryTotal / float64(recoveryCount)
	loss := 0.0
	failureDays := make([]string, len(failures))
	for i, day := range failures {
		failureDays[i] = dayString(day.Date)
		loss += math.Max(0, recoveryMean-day.TotalEnergy)
	}

	return []Finding{{
		Type:      domain.AnomalyIntermittentFailure,
		StartDate: failures[0].Date,
		EndDate:   failures[len(failures)-1].Date,
		Description: fmt.Sprintf(
			"Intermittent outages between %s and %s: %d near-zero days (at or below %.2f) with %d recovery days in between",
			failureDays[0], failureDays[len(failureDays)-1], len(failures), threshold, recoveryCount),
		Details: domain.DetectionDetails{
			Method:        "failure_gap_scan",
			ExpectedValue: fptr(recoveryMean),
			Threshold:     fptr(threshold),
			Context: map[string]interface{}{
				"failure_days":  failureDays,
				"recovery_days": recoveryCount,
			},
		},
		EstimatedLossKWh: fptr(loss),
	}}
}

// DetectBelowThreshold fires when at least half of the window's non-zero days
// fall below 20% of the expected baseline (capacity times average sun hours).
// Needs >=3 days. INFO only: persistent but not acute.
// Context keys: "baseline", "days_below", "nonzero_days", "nonzero_mean".
func DetectBelowThreshold(series []domain.DailyAggregate, capacityWatts float64) []Finding {
	if len(series) < belowMinDays {
		return nil
	}

	baseline := capacityWatts * avgSunHours
	if baseline <= 0 {
		return nil
	}
	cutoff := baseline * belowBaselineFraction

	below := 0
	nonZero := 0
	nonZeroTotal := 0.0
	for _, day := range series {
		if day.TotalEnergy <= 0 {
			continue
		}
		nonZero++
		nonZeroTotal += day.TotalEnergy
		if day.TotalEnergy < cutoff {
			below++
		}
	}
	if nonZero == 0 || float64(below) < float64(nonZero)*belowShare {
		return nil
	}

	nonZeroMean := nonZeroTotal / float64(nonZero)
	return []Finding{{
		Type:      domain.AnomalyBelowThreshold,
		StartDate: series[0].Date,
		EndDate:   series[len(series)-1].Date,
		Description: fmt.Sprintf(
			"%d of %d producing days since %s stayed below %.2f (20%% of the %.2f expected baseline); mean output %.2f",
			below, nonZero, dayString(series[0].Date), cutoff, baseline, nonZeroMean),
		Details: domain.DetectionDetails{
			Method:        "baseline_share",
			ExpectedValue: fptr(baseline),
			ActualValue:   fptr(nonZeroMean),
			Threshold:     fptr(cutoff),
			Context: map[string]interface{}{
				"baseline":     baseline,
				"days_below":   below,
				"nonzero_days": nonZero,
				"nonzero_mean": nonZeroMean,
			},
		},
	}}
}
