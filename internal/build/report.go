package build

import (
	"time"

	"github.com/starford/kiln/internal/metrics"
)

// Report summarises one build.
type Report struct {
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Documents   int           `json:"documents"`
	Rendered    int           `json:"rendered"`
	Skipped     int           `json:"skipped"`
	Drafts      int           `json:"drafts"`
	ParseErrors int           `json:"parse_errors"`
	ReadErrors  int           `json:"read_errors"`
	Failed      int           `json:"failed"`
	JobFailures int           `json:"job_failures"`
	Routes      int           `json:"routes"`
	Removed     int           `json:"removed"`
	Collections int           `json:"collections"`
	Taxonomies  int           `json:"taxonomies"`
}

func (r *Report) tally(snap *Snapshot) {
	for _, d := range snap.Docs {
		if d.Err != nil {
			r.Failed++
			continue
		}
		switch d.Outcome {
		case metrics.DocumentRendered:
			r.Rendered++
		case metrics.DocumentSkipped:
			r.Skipped++
		case metrics.DocumentDraft:
			r.Drafts++
		case metrics.DocumentParseError:
			r.ParseErrors++
			r.Rendered++
		}
	}
	r.Collections = len(snap.Collections)
	r.Taxonomies = len(snap.Taxonomies)
}
