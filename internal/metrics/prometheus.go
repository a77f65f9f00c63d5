package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	jobDuration   *prom.HistogramVec
	jobResults    *prom.CounterVec
	buildDuration prom.Histogram
	documents     *prom.CounterVec
}

// NewPrometheusRecorder creates the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		jobDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "kiln",
			Name:      "job_duration_seconds",
			Help:      "Duration of pool jobs by kind",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		jobResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "kiln",
			Name:      "job_results_total",
			Help:      "Pool job outcomes by kind",
		}, []string{"kind", "result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "kiln",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		documents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "kiln",
			Name:      "documents_total",
			Help:      "Documents processed by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.jobDuration, pr.jobResults, pr.buildDuration, pr.documents)
	return pr
}

func (p *PrometheusRecorder) ObserveJobDuration(kind string, d time.Duration) {
	p.jobDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncJobResult(kind string, result ResultLabel) {
	p.jobResults.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDocuments(outcome string, n int) {
	if n <= 0 {
		return
	}
	p.documents.WithLabelValues(outcome).Add(float64(n))
}

// Handler serves the metrics registered on reg.
func Handler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
