// Package metrics holds the Prometheus collectors shared by the client core
// and the reference backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync engine metrics
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guff_sync_fetches_total",
			Help: "Collection fetches issued by the sync engine",
		},
		[]string{"key", "outcome"}, // outcome: "ok", "error", "discarded"
	)

	FetchJoins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guff_sync_fetch_joins_total",
			Help: "Fetch triggers that joined an in-flight fetch instead of issuing a new one",
		},
		[]string{"key"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guff_sync_fetch_duration_seconds",
			Help:    "Collection fetch duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"key"},
	)

	Invalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guff_sync_invalidations_total",
			Help: "Cache invalidations by key and source",
		},
		[]string{"key", "source"}, // source: "mutation", "poll"
	)

	// Mutation metrics
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guff_mutations_total",
			Help: "Remote write operations",
		},
		[]string{"op", "outcome"},
	)

	// Speech metrics
	SpeechSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guff_speech_sessions_total",
			Help: "Speech capture and playback sessions by how they ended",
		},
		[]string{"engine", "result"},
	)

	// HTTP metrics (reference backend)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guff_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guff_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics (reference backend)
	MessagesPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guff_messages_posted_total",
			Help: "Total chat messages stored",
		},
	)

	QuestionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guff_questions_created_total",
			Help: "Total questions stored",
		},
	)

	AnswersSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guff_answers_saved_total",
			Help: "Total answer updates stored",
		},
	)
)
