package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the counters of the reasoning pipeline. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	ModelCalls *prometheus.CounterVec
	Candidates *prometheus.CounterVec
	Results    *prometheus.CounterVec
	Latency    prometheus.Histogram
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		ModelCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meddev",
			Name:      "model_calls_total",
			Help:      "Completion requests issued, by kind (initial|retry|repair) and finish reason.",
		}, []string{"kind", "finish_reason"}),
		Candidates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meddev",
			Name:      "candidates_total",
			Help:      "Model candidates by validation outcome (accepted|invalid|truncated|empty).",
		}, []string{"outcome"}),
		Results: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meddev",
			Name:      "analysis_results_total",
			Help:      "Finished analyses by status.",
		}, []string{"status"}),
		Latency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "meddev",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of a full attempt/repair chain.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		}),
	}
}

func (r *Recorder) ModelCall(kind, finishReason string) {
	if r == nil {
		return
	}
	if finishReason == "" {
		finishReason = "none"
	}
	r.ModelCalls.WithLabelValues(kind, finishReason).Inc()
}

func (r *Recorder) Candidate(outcome string) {
	if r == nil {
		return
	}
	r.Candidates.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Result(status string, seconds float64) {
	if r == nil {
		return
	}
	r.Results.WithLabelValues(status).Inc()
	r.Latency.Observe(seconds)
}
