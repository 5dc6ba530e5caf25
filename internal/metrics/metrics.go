// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traininghub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "traininghub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "traininghub_http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	SignInAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traininghub_sign_in_attempts_total",
			Help: "Sign-in attempts by method and outcome",
		},
		[]string{"method", "status"},
	)

	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traininghub_gate_decisions_total",
			Help: "Access gate outcomes",
		},
		[]string{"state"},
	)

	VideosWatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "traininghub_videos_watched_total",
			Help: "Videos newly marked as watched",
		},
	)

	OnboardingStepsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "traininghub_onboarding_steps_completed_total",
			Help: "Onboarding steps checked off",
		},
	)

	CardsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traininghub_cards_created_total",
			Help: "Automation cards created from the palette",
		},
		[]string{"card_type"},
	)

	CardDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "traininghub_card_drops_total",
			Help: "Automation card drops by outcome",
		},
		[]string{"outcome"},
	)
)
