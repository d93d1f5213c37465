package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpAPIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "http_api",
		Name:      "requests_total",
		Help:      "Count of control API requests.",
	}, []string{"route", "code"})

	httpAPIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "http_api",
		Name:      "request_duration_seconds",
		Help:      "Duration of control API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

// HTTPAPI tracks metrics for the control API.
type HTTPAPI struct{}

// NewHTTPAPI creates an HTTPAPI metrics collector.
func NewHTTPAPI() *HTTPAPI {
	return &HTTPAPI{}
}

// ObserveRequest records one served request.
func (m HTTPAPI) ObserveRequest(route string, code int, started time.Time) {
	if route == "" {
		route = "unmatched"
	}
	httpAPIRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpAPIRequestDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
}
