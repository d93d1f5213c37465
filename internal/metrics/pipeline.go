package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelinePersistBlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "block_pipeline",
		Name:      "persist_block_total",
		Help:      "Count of persist block attempts.",
	}, []string{"network", "status"})

	pipelinePersistBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "block_pipeline",
		Name:      "persist_block_duration_seconds",
		Help:      "Duration of persisting a single block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	pipelineIndexedHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "block_pipeline",
		Name:      "last_persisted_height",
		Help:      "Height of the most recently persisted block.",
	}, []string{"network"})

	pipelineIndexBatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "block_pipeline",
		Name:      "index_batch_total",
		Help:      "Count of height batches indexed.",
	}, []string{"network", "status"})

	pipelineIndexBatchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "block_pipeline",
		Name:      "index_batch_size",
		Help:      "Number of heights in an indexed batch.",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	}, []string{"network", "status"})
)

// BlockPipeline collects metrics for block persistence.
type BlockPipeline struct {
	network string
}

// NewBlockPipeline constructs block pipeline metrics for a network.
func NewBlockPipeline(network string) *BlockPipeline {
	if network == "" {
		network = "unknown"
	}
	return &BlockPipeline{network: network}
}

// ObservePersistBlock records a persist attempt for one block.
func (m BlockPipeline) ObservePersistBlock(err error, height int64, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}

	pipelinePersistBlockTotal.WithLabelValues(m.network, status).Inc()
	pipelinePersistBlockDuration.WithLabelValues(m.network, status).Observe(time.Since(started).Seconds())
	if err == nil {
		pipelineIndexedHeight.WithLabelValues(m.network).Set(float64(height))
	}
}

// ObserveIndexBatch records an indexed batch of heights.
func (m BlockPipeline) ObserveIndexBatch(err error, heights int) {
	status := "success"
	if err != nil {
		status = "error"
	}

	pipelineIndexBatchTotal.WithLabelValues(m.network, status).Inc()
	pipelineIndexBatchSize.WithLabelValues(m.network, status).Observe(float64(heights))
}
