package domain

import "time"

// TrendBucket is one day of the anomaly trend, split by severity.
type TrendBucket struct {
	Date     time.Time `json:"date"`
	Critical int64     `json:"critical"`
	Warning  int64     `json:"warning"`
	Info     int64     `json:"info"`
}

// StatsReport is a read-only rollup over stored anomalies. Computing it never
// mutates anything, so it is safe to build concurrently with detection runs.
type StatsReport struct {
	DeviceID         string                    `json:"device_id,omitempty"`
	Total            int64                     `json:"total"`
	ByType           map[AnomalyType]int64     `json:"by_type"`
	BySeverity       map[AnomalySeverity]int64 `json:"by_severity"`
	ByStatus         map[AnomalyStatus]int64   `json:"by_status"`
	EstimatedLossKWh float64                   `json:"estimated_energy_loss_kwh"`
	Trend            []TrendBucket             `json:"trend"`
	GeneratedAt      time.Time                 `json:"generated_at"`
}
