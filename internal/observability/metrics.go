package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry *prometheus.Registry

	// Completed runs by terminal status.
	RunsTotal *prometheus.CounterVec

	// Wall time of a whole run, trigger to terminal state.
	RunDuration prometheus.Histogram

	// Executed steps by stage and status.
	StepsTotal *prometheus.CounterVec

	// Wall time of a single step. Watch the build stage: it dominates.
	StepDuration *prometheus.HistogramVec
)

func init() {
	registry = prometheus.NewRegistry()

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipewright_runs_total",
			Help: "Total number of pipeline runs by terminal status",
		},
		[]string{"status"},
	)
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipewright_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
	StepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipewright_steps_total",
			Help: "Total number of executed steps by stage and status",
		},
		[]string{"stage", "status"},
	)
	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipewright_step_duration_seconds",
			Help:    "Step duration in seconds",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 300},
		},
		[]string{"stage"},
	)

	registry.MustRegister(RunsTotal, RunDuration, StepsTotal, StepDuration)
}

// RecordStep records one finished step.
func RecordStep(stage, status string, d time.Duration) {
	StepsTotal.WithLabelValues(stage, status).Inc()
	StepDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun records one run reaching a terminal status.
func RecordRun(status string, d time.Duration) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(d.Seconds())
}

// WriteTextfile dumps the registry in the Prometheus text format, for
// pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
