// Package metrics exposes tutorial activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/p-n-ai/pai-tutorial/internal/tutorial"
)

const namespace = "pai_tutorial"

// Recorder counts engine events. It implements tutorial.EventLogger so it can sit
// next to the other loggers in a tutorial.MultiEventLogger.
type Recorder struct {
	registry *prometheus.Registry

	events        *prometheus.CounterVec
	answers       *prometheus.CounterVec
	quizScore     prometheus.Histogram
	completionMin prometheus.Histogram
	requests      *prometheus.CounterVec
}

// NewRecorder creates a recorder with its own registry, including Go runtime
// and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Tutorial events by type",
			},
			[]string{"type"},
		),
		answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answers_total",
				Help:      "Submitted quiz answers by module and outcome",
			},
			[]string{"module", "correct"},
		),
		quizScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quiz_score_percent",
			Help:      "Quiz score of completed modules",
			Buckets:   []float64{0, 25, 50, 67, 75, 90, 100},
		}),
		completionMin: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "module_completion_minutes",
			Help:      "Time from module start to completion",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60},
		}),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bridge_requests_total",
				Help:      "Bridge requests by route and status",
			},
			[]string{"route", "status"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.events,
		r.answers,
		r.quizScore,
		r.completionMin,
		r.requests,
	)
	return r
}

// LogEvent records event.
func (r *Recorder) LogEvent(event tutorial.Event) error {
	r.events.WithLabelValues(event.EventType).Inc()

	switch event.EventType {
	case tutorial.EventAnswerSubmitted:
		correct, _ := event.Data["correct"].(bool)
		r.answers.WithLabelValues(strconv.Itoa(event.ModuleID), strconv.FormatBool(correct)).Inc()
	case tutorial.EventModuleCompleted:
		if pct, ok := event.Data["percentage"].(int); ok {
			r.quizScore.Observe(float64(pct))
		}
		if minutes, ok := event.Data["completion_minutes"].(float64); ok {
			r.completionMin.Observe(minutes)
		}
	}
	return nil
}

// ObserveRequest counts a bridge request.
func (r *Recorder) ObserveRequest(route string, status int) {
	r.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
