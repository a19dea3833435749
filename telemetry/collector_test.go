package telemetry

import (
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// descriptorCount drains Describe into a count, per testable property 13:
// the descriptor set is stable regardless of scan activity.
func descriptorCount(t *testing.T, c *Collector) int {
	t.Helper()
	ch := make(chan *prometheus.Desc, 32)
	go func() {
		c.Describe(ch)
		close(ch)
	}()
	n := 0
	for range ch {
		n++
	}
	return n
}

func TestDescribeIsStableRegardlessOfScanActivity(t *testing.T) {
	fresh := NewCollector(func() bool { return true })
	active := NewCollector(func() bool { return true })
	active.ObserveScanMessages("find_one", 5)
	active.ObservePartitionError("transport")
	active.ObserveJob("completed")

	assert.Equal(t, descriptorCount(t, fresh), descriptorCount(t, active))
}

func TestCollectIncludesEveryPreInitializedLabelValue(t *testing.T) {
	c := NewCollector(func() bool { return false })

	ch := make(chan prometheus.Metric, 64)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	seenScanOps := map[string]bool{}
	n := 0
	for m := range ch {
		n++
		var dtoM dto.Metric
		require.NoError(t, m.Write(&dtoM))
		for _, l := range dtoM.Label {
			if l.GetName() == "operation" {
				seenScanOps[l.GetValue()] = true
			}
		}
	}

	for _, op := range ScanOperations {
		assert.True(t, seenScanOps[op], "expected operation label %q to be pre-initialized", op)
	}
	assert.True(t, n > 0)
}
