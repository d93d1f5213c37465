// Package metrics exposes application metrics collectors.
package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "rpc_client",
		Name:      "operations_total",
		Help:      "Count of node RPC operations.",
	}, []string{"operation", "node", "status"})
	rpcRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "rpc_client",
		Name:      "operation_duration_seconds",
		Help:      "Duration of node RPC operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "node", "status"})
)

// RPCClient tracks metrics for RPC calls to a node.
type RPCClient struct {
	node string
}

// NewRPCClient constructs a metrics collector for RPC calls to the given node id.
func NewRPCClient(node string) *RPCClient {
	if node == "" {
		node = "unknown"
	}
	return &RPCClient{node: node}
}

// Observe records a single RPC call outcome and duration.
func (m RPCClient) Observe(operation string, err error, started time.Time) {
	status := statusOf(err)
	rpcRequestsTotal.WithLabelValues(operation, m.node, status).Inc()
	rpcRequestDuration.WithLabelValues(operation, m.node, status).Observe(time.Since(started).Seconds())
}

func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	switch err.(type) {
	case *model.TransportError:
		return "transport_error"
	case *model.ProtocolError:
		return "protocol_error"
	}
	return "error"
}
