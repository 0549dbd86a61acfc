package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	DetectionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siges_detection_runs_total",
		Help: "Detection job runs by outcome",
	}, []string{"outcome"})

	DetectionRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "siges_detection_run_duration_seconds",
		Help:    "Wall time of a full fleet detection run",
		Buckets: prometheus.DefBuckets,
	})

	AnomaliesDetectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siges_anomalies_detected_total",
		Help: "Newly persisted anomalies by type and severity",
	}, []string{"type", "severity"})

	DeviceAnalysisFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "siges_device_analysis_failures_total",
		Help: "Per-device analysis failures skipped by the job runner",
	})

	AnomalyResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "siges_anomaly_resolutions_total",
		Help: "Resolution workflow actions by resulting status",
	}, []string{"status"})
)
