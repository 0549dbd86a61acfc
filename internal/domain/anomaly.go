package domain

import (
	"fmt"
	"time"
)

type AnomalyType string

const (
	AnomalyZeroProduction      AnomalyType = "ZERO_PRODUCTION"
	AnomalySignificantDrop     AnomalyType = "SIGNIFICANT_DROP"
	AnomalyGradualDegradation  AnomalyType = "GRADUAL_DEGRADATION"
	AnomalySensorSpike         AnomalyType = "SENSOR_SPIKE"
	AnomalyIntermittentFailure AnomalyType = "INTERMITTENT_FAILURE"
	AnomalyBelowThreshold      AnomalyType = "BELOW_THRESHOLD"
)

type AnomalySeverity string

const (
	SeverityCritical AnomalySeverity = "CRITICAL"
	SeverityWarning  AnomalySeverity = "WARNING"
	SeverityInfo     AnomalySeverity = "INFO"
)

type AnomalyStatus string

const (
	StatusOpen          AnomalyStatus = "OPEN"
	StatusAcknowledged  AnomalyStatus = "ACKNOWLEDGED"
	StatusResolved      AnomalyStatus = "RESOLVED"
	StatusFalsePositive AnomalyStatus = "FALSE_POSITIVE"
)

var severityByType = map[AnomalyType]AnomalySeverity{
	AnomalyZeroProduction:      SeverityCritical,
	AnomalySignificantDrop:     SeverityWarning,
	AnomalyGradualDegradation:  SeverityWarning,
	AnomalySensorSpike:         SeverityInfo,
	AnomalyIntermittentFailure: SeverityWarning,
	AnomalyBelowThreshold:      SeverityInfo,
}

var recommendedActionByType = map[AnomalyType]string{
	AnomalyZeroProduction:      "Dispatch a technician: check inverter status, AC/DC disconnects and string fuses.",
	AnomalySignificantDrop:     "Inspect for shading, soiling or partial string outage; compare with site peers.",
	AnomalyGradualDegradation:  "Schedule panel cleaning and IV-curve test; review degradation against warranty curve.",
	AnomalySensorSpike:         "Verify metering hardware and CT ratio configuration; reading exceeds physical limits.",
	AnomalyIntermittentFailure: "Check wiring, connectors and inverter restart logs for loose-contact symptoms.",
	AnomalyBelowThreshold:      "Review site irradiance and system sizing; sustained output below expected baseline.",
}

// SeverityFor returns the fixed severity for an anomaly type. Severity is a
// pure function of type, never of the measured values.
func SeverityFor(t AnomalyType) AnomalySeverity {
	return severityByType[t]
}

// RecommendedActionFor returns the fixed operator guidance for an anomaly type.
func RecommendedActionFor(t AnomalyType) string {
	return recommendedActionByType[t]
}

// DetectionDetails is the structured evidence captured by a detector.
// Context is a schema-less bag; each detector documents the keys it sets.
type DetectionDetails struct {
	Method           string                 `json:"method"`
	ExpectedValue    *float64               `json:"expected_value,omitempty"`
	ActualValue      *float64               `json:"actual_value,omitempty"`
	DeviationPercent *float64               `json:"deviation_percent,omitempty"`
	Threshold        *float64               `json:"threshold,omitempty"`
	Context          map[string]interface{} `json:"context,omitempty"`
}

// Anomaly is a persisted, lifecycle-tracked detection finding.
// At most one anomaly exists per (device, type, start, end); the composite
// unique index is what makes concurrent detection runs safe.
type Anomaly struct {
	ID                string           `json:"id" gorm:"primaryKey"`
	DeviceID          string           `json:"device_id" gorm:"index;uniqueIndex:idx_anomalies_dedup"`
	Type              AnomalyType      `json:"anomaly_type" gorm:"column:anomaly_type;uniqueIndex:idx_anomalies_dedup"`
	Severity          AnomalySeverity  `json:"severity" gorm:"index"`
	StartDate         time.Time        `json:"start_date" gorm:"uniqueIndex:idx_anomalies_dedup"`
	EndDate           time.Time        `json:"end_date" gorm:"uniqueIndex:idx_anomalies_dedup"`
	Description       string           `json:"description"`
	Details           DetectionDetails `json:"detection_details" gorm:"serializer:json"`
	Status            AnomalyStatus    `json:"status" gorm:"index"`
	RecommendedAction string           `json:"recommended_action"`
	EstimatedLossKWh  *float64         `json:"estimated_energy_loss_kwh,omitempty" gorm:"column:estimated_loss_kwh"`
	DetectedAt        time.Time        `json:"detected_at" gorm:"index"`
	AcknowledgedAt    *time.Time       `json:"acknowledged_at,omitempty"`
	AcknowledgedBy    string           `json:"acknowledged_by,omitempty"`
	ResolvedAt        *time.Time       `json:"resolved_at,omitempty"`
	ResolvedBy        string           `json:"resolved_by,omitempty"`
	ResolutionNotes   string           `json:"resolution_notes,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (a *Anomaly) terminal() bool {
	return a.Status == StatusResolved || a.Status == StatusFalsePositive
}

// Acknowledge moves an OPEN anomaly to ACKNOWLEDGED and stamps the actor.
func (a *Anomaly) Acknowledge(actor string, now time.Time) error {
	if a.Status != StatusOpen {
		return fmt.Errorf("acknowledge from %s: %w", a.Status, ErrInvalidStateTransition)
	}
	a.Status = StatusAcknowledged
	a.AcknowledgedAt = &now
	a.AcknowledgedBy = actor
	return nil
}

// Resolve moves an OPEN or ACKNOWLEDGED anomaly to the terminal RESOLVED state.
func (a *Anomaly) Resolve(actor, notes string, now time.Time) error {
	if a.terminal() {
		return fmt.Errorf("resolve from %s: %w", a.Status, ErrInvalidStateTransition)
	}
	a.Status = StatusResolved
	a.ResolvedAt = &now
	a.ResolvedBy = actor
	if notes != "" {
		a.ResolutionNotes = notes
	}
	return nil
}

// MarkFalsePositive moves an OPEN or ACKNOWLEDGED anomaly to the terminal
// FALSE_POSITIVE state. Uses the resolution stamps, same as Resolve.
func (a *Anomaly) MarkFalsePositive(actor, notes string, now time.Time) error {
	if a.terminal() {
		return fmt.Errorf("mark false positive from %s: %w", a.Status, ErrInvalidStateTransition)
	}
	a.Status = StatusFalsePositive
	a.ResolvedAt = &now
	a.ResolvedBy = actor
	if notes != "" {
		a.ResolutionNotes = notes
	}
	return nil
}

// DetectionRunSummary is what one full detection run reports back.
type DetectionRunSummary struct {
	Processed      int `json:"processed"`
	AnomaliesFound int `json:"anomalies_found"`
	NewAnomalies   int `json:"new_anomalies"`
	FailedDevices  int `json:"failed_devices"`
}
