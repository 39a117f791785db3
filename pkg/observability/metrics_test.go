package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/avltree/pkg/avl"
	"github.com/Sumatoshi-tech/avltree/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.TreeMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")

	tm, err := observability.NewTreeMetrics(meter)
	require.NoError(t, err)

	return tm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumByAttr(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64

	for _, dp := range sum.DataPoints {
		if got, found := dp.Attributes.Value(attribute.Key(key)); found && got.AsString() == value {
			total += dp.Value
		}
	}

	return total
}

func TestTreeMetrics_RecordOp(t *testing.T) {
	t.Parallel()

	tm, reader := setupTestMeter(t)
	ctx := context.Background()

	tm.RecordOp(ctx, observability.OpInsert, time.Microsecond)
	tm.RecordOp(ctx, observability.OpInsert, time.Microsecond)
	tm.RecordOp(ctx, observability.OpRemove, time.Microsecond)

	rm := collectMetrics(t, reader)

	ops := findMetric(rm, "avltree.ops.total")
	assert.Equal(t, int64(2), sumByAttr(t, ops, "op", observability.OpInsert))
	assert.Equal(t, int64(1), sumByAttr(t, ops, "op", observability.OpRemove))

	duration := findMetric(rm, "avltree.op.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}

	assert.Equal(t, uint64(3), count)
}

func TestTreeMetrics_RecordStats(t *testing.T) {
	t.Parallel()

	tm, reader := setupTestMeter(t)
	ctx := context.Background()

	tree := avl.New[int, int]()
	before := tree.Stats()

	for key := range 7 {
		tree.Insert(key, key)
	}

	tree.Insert(-2, 0)
	tree.Insert(-1, 0)

	tm.RecordStats(ctx, before, tree.Stats(), tree.Height(), tree.Len())

	rm := collectMetrics(t, reader)
	rotations := findMetric(rm, "avltree.rotations.total")
	assert.Equal(t, tree.Stats().SingleRotations, sumByAttr(t, rotations, "kind", "single"))
	assert.Equal(t, tree.Stats().DoubleRotations, sumByAttr(t, rotations, "kind", "double"))

	height := findMetric(rm, "avltree.height")
	require.NotNil(t, height)

	gauge, ok := height.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(tree.Height()), gauge.DataPoints[0].Value)
}
