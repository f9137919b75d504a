package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenebuild_extractions_total",
		Help: "Total number of extraction jobs processed, by status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scenebuild_extraction_stage_duration_seconds",
		Help:    "Duration of each extraction pipeline stage",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesSampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scenebuild_frames_sampled_total",
		Help: "Total number of frames sampled across all jobs",
	})

	ScenesProducedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenebuild_scenes_produced_total",
		Help: "Total number of scenes produced, by strategy (model or fallback)",
	}, []string{"strategy"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scenebuild_active_workers",
		Help: "Number of currently active workers processing extractions",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scenebuild_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
