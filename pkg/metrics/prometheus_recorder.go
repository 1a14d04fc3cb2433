package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

const namespace = "fmbuild"

// PrometheusRecorder implements Recorder using Prometheus metrics on its own
// registry. A build is a one-shot process, so the registry is exported with
// WriteTextfile instead of being scraped.
type PrometheusRecorder struct {
	registry        *prom.Registry
	stageDuration   *prom.GaugeVec
	stageResults    *prom.CounterVec
	commandDuration *prom.HistogramVec
	commandResults  *prom.CounterVec
	buildDuration   prom.Gauge
	buildSuccess    prom.Gauge
	lastRun         prom.Gauge
}

// NewPrometheusRecorder constructs and registers the build metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	pr := &PrometheusRecorder{registry: reg}
	pr.stageDuration = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of the last run of each build stage",
	}, []string{"stage"})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage results by outcome",
	}, []string{"stage", "result"})
	pr.commandDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "command_duration_seconds",
		Help:      "Duration of external commands",
		Buckets:   []float64{0.1, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"stage"})
	pr.commandResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "command_results_total",
		Help:      "External command results",
	}, []string{"stage", "result"})
	pr.buildDuration = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "build_duration_seconds",
		Help:      "Duration of the last build run",
	})
	pr.buildSuccess = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "build_success",
		Help:      "1 if the last build run succeeded, 0 otherwise",
	})
	pr.lastRun = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "build_last_run_timestamp_seconds",
		Help:      "Unix time the last build run finished",
	})

	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.commandDuration, pr.commandResults,
		pr.buildDuration, pr.buildSuccess, pr.lastRun)
	return pr
}

func (pr *PrometheusRecorder) ObserveStage(stage string, result ResultLabel, d time.Duration) {
	pr.stageDuration.WithLabelValues(stage).Set(d.Seconds())
	pr.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (pr *PrometheusRecorder) ObserveCommand(stage string, success bool, d time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}

	pr.commandDuration.WithLabelValues(stage).Observe(d.Seconds())
	pr.commandResults.WithLabelValues(stage, result).Inc()
}

func (pr *PrometheusRecorder) ObserveBuild(success bool, d time.Duration) {
	pr.buildDuration.Set(d.Seconds())
	if success {
		pr.buildSuccess.Set(1)
	} else {
		pr.buildSuccess.Set(0)
	}
	pr.lastRun.SetToCurrentTime()
}

// Registry exposes the underlying registry.
func (pr *PrometheusRecorder) Registry() *prom.Registry {
	return pr.registry
}

// WriteTextfile stores all metrics in the text exposition format. The file is
// written atomically so a node exporter never sees a partial file.
func (pr *PrometheusRecorder) WriteTextfile(path string) error {
	err := prom.WriteToTextfile(path, pr.registry)
	if err != nil {
		return eris.Wrapf(err, "failed to write metrics to %s", path)
	}

	return nil
}
