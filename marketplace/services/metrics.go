package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	projectCreateMetric    = promauto.NewSummary(prometheus.SummaryOpts{Name: "market_project_create", Help: "Project creations"})
	submissionCreateMetric = promauto.NewSummary(prometheus.SummaryOpts{Name: "market_submission_create", Help: "Submission creations"})
	submissionReviewMetric = promauto.NewSummary(prometheus.SummaryOpts{Name: "market_submission_review", Help: "Submission reviews"})

	paymentsSettledMetric = promauto.NewCounter(prometheus.CounterOpts{Name: "market_payments_settled", Help: "Number of payments settled for approved submissions."})
)
