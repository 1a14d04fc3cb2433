// Package metrics records stage and command outcomes of a build run.
package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultWarning ResultLabel = "warning"
	ResultFatal   ResultLabel = "fatal"
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for build, stage and command metrics.
type Recorder interface {
	ObserveStage(stage string, result ResultLabel, d time.Duration)
	ObserveCommand(stage string, success bool, d time.Duration)
	ObserveBuild(success bool, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStage(string, ResultLabel, time.Duration) {}
func (NoopRecorder) ObserveCommand(string, bool, time.Duration)      {}
func (NoopRecorder) ObserveBuild(bool, time.Duration)                {}
