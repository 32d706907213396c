// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medalert_api_requests_total",
			Help: "Total number of backend API requests by outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "medalert_api_request_duration_seconds",
			Help: "Duration of backend API requests in seconds",
		},
		[]string{"endpoint"},
	)

	UploadAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medalert_upload_attempts_total",
			Help: "Total number of prescription upload attempts by result",
		},
		[]string{"result"},
	)
)
