// Package metrics defines the observability hooks of the build pipeline.
package metrics

import "time"

// ResultLabel enumerates job outcomes for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultPanic   ResultLabel = "panic"
)

// Document outcomes.
const (
	DocumentRendered   = "rendered"
	DocumentSkipped    = "skipped"
	DocumentDraft      = "draft"
	DocumentParseError = "parse_error"
	DocumentReadError  = "read_error"
)

// Recorder receives job and build measurements. Implementations must be safe
// for concurrent use by pool workers.
type Recorder interface {
	ObserveJobDuration(kind string, d time.Duration)
	IncJobResult(kind string, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncDocuments(outcome string, n int)
}

// NoopRecorder discards everything. It is the default when metrics are not configured.
type NoopRecorder struct{}

func (NoopRecorder) ObserveJobDuration(string, time.Duration) {}
func (NoopRecorder) IncJobResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)       {}
func (NoopRecorder) IncDocuments(string, int)                 {}
