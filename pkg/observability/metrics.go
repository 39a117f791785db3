package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/avltree/pkg/avl"
)

const (
	metricOpsTotal       = "avltree.ops.total"
	metricOpDuration     = "avltree.op.duration.seconds"
	metricRotationsTotal = "avltree.rotations.total"
	metricHeight         = "avltree.height"
	metricSize           = "avltree.size"

	attrOp   = "op"
	attrKind = "kind"

	kindSingle = "single"
	kindDouble = "double"
)

// Tree operation names used as the "op" attribute.
const (
	OpInsert    = "insert"
	OpOverwrite = "overwrite"
	OpRemove    = "remove"
	OpFind      = "find"
)

// durationBucketBoundaries covers 100ns to 10ms; tree operations are far
// below the request latencies the SDK defaults are tuned for.
var durationBucketBoundaries = []float64{1e-7, 2.5e-7, 5e-7, 1e-6, 2.5e-6, 5e-6, 1e-5, 1e-4, 1e-3, 1e-2}

// TreeMetrics holds the OTel instruments describing a tree under load.
type TreeMetrics struct {
	opsTotal       metric.Int64Counter
	opDuration     metric.Float64Histogram
	rotationsTotal metric.Int64Counter
	height         metric.Int64Gauge
	size           metric.Int64Gauge
}

// NewTreeMetrics creates tree metric instruments from the given meter.
func NewTreeMetrics(mt metric.Meter) (*TreeMetrics, error) {
	opsTotal, err := mt.Int64Counter(metricOpsTotal,
		metric.WithDescription("Total number of tree operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOpsTotal, err)
	}

	opDuration, err := mt.Float64Histogram(metricOpDuration,
		metric.WithDescription("Tree operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOpDuration, err)
	}

	rotationsTotal, err := mt.Int64Counter(metricRotationsTotal,
		metric.WithDescription("Total number of rebalancing rotations"),
		metric.WithUnit("{rotation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRotationsTotal, err)
	}

	height, err := mt.Int64Gauge(metricHeight,
		metric.WithDescription("Current tree height in edges"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricHeight, err)
	}

	size, err := mt.Int64Gauge(metricSize,
		metric.WithDescription("Current number of keys"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSize, err)
	}

	return &TreeMetrics{
		opsTotal:       opsTotal,
		opDuration:     opDuration,
		rotationsTotal: rotationsTotal,
		height:         height,
		size:           size,
	}, nil
}

// RecordOp records one completed tree operation.
func (tm *TreeMetrics) RecordOp(ctx context.Context, op string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))

	tm.opsTotal.Add(ctx, 1, attrs)
	tm.opDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStats adds the rotations done between prev and cur and reports the
// tree shape.
func (tm *TreeMetrics) RecordStats(ctx context.Context, prev, cur avl.Stats, height, size int) {
	if single := cur.SingleRotations - prev.SingleRotations; single > 0 {
		tm.rotationsTotal.Add(ctx, single, metric.WithAttributes(attribute.String(attrKind, kindSingle)))
	}

	if double := cur.DoubleRotations - prev.DoubleRotations; double > 0 {
		tm.rotationsTotal.Add(ctx, double, metric.WithAttributes(attribute.String(attrKind, kindDouble)))
	}

	tm.height.Record(ctx, int64(height))
	tm.size.Record(ctx, int64(size))
}
