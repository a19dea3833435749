package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/kafka-ops/trifecta/kafka"
)

func testLogger() *zap.Logger { return zap.NewNop() }

// fakeConsumer is an in-memory stand-in for *kafka.PartitionConsumer: each
// partition is a fixed slice of values at consecutive offsets starting at 0,
// with optional gaps represented by empty-string values (compaction/skipped
// offsets).
type fakeConsumer struct {
	partition    int32
	values       []string // index = offset; "" means this offset is a gap
	committed    map[string]int64
	fetchesAsked []int64
}

func (f *fakeConsumer) GetFirstOffset(ctx context.Context) (int64, error) { return 0, nil }

// GetLastOffset mirrors the real PartitionConsumer's high-watermark
// semantics: one past the last message actually present.
func (f *fakeConsumer) GetLastOffset(ctx context.Context) (int64, error) {
	return int64(len(f.values)), nil
}

func (f *fakeConsumer) FetchOffset(ctx context.Context, groupID string) (int64, bool, error) {
	if f.committed == nil {
		return 0, false, nil
	}
	offset, ok := f.committed[groupID]
	return offset, ok, nil
}

func (f *fakeConsumer) Fetch(ctx context.Context, offsets []int64, fetchSize int32) ([]kafka.MessageData, error) {
	var out []kafka.MessageData
	for _, offset := range offsets {
		f.fetchesAsked = append(f.fetchesAsked, offset)
		if offset < 0 || offset >= int64(len(f.values)) {
			continue
		}
		if f.values[offset] == "" {
			continue // gap: empty batch for this offset
		}
		out = append(out, kafka.MessageData{
			Partition:  f.partition,
			Offset:     offset,
			NextOffset: offset + 1,
			LastOffset: int64(len(f.values)) - 1,
			Key:        []byte("k"),
			Value:      []byte(f.values[offset]),
		})
	}
	return out, nil
}

func (f *fakeConsumer) Close() {}

func withFakes(e *Engine, partitions map[int32][]string) {
	e.dial = func(ctx context.Context, tp kafka.TopicAndPartition) (partitionConsumer, error) {
		return &fakeConsumer{partition: tp.Partition, values: partitions[tp.Partition]}, nil
	}
}

func equalsPredicate(want string) Predicate {
	return func(value, key []byte) bool { return string(value) == want }
}

func TestFindManyOrderingAndLimit(t *testing.T) {
	e := &Engine{logger: testLogger()}
	withFakes(e, map[int32][]string{
		0: {"b", "b", "b"},
		1: {"b", "b", "b"},
		2: {"b", "b", "b"},
	})

	matches, err := e.findManyOverPartitions(context.Background(), "t", []int32{0, 1, 2}, equalsPredicate("b"), Restrictions{}, 4, nil, nil)
	require.NoError(t, err)
	require.Len(t, matches, 4)

	for i := 1; i < len(matches); i++ {
		assert.True(t, matches[i-1].Partition <= matches[i].Partition)
	}
	assert.Equal(t, int32(0), matches[0].Partition)
}

func TestOffsetAdvancesOnEmptyBatch(t *testing.T) {
	e := &Engine{logger: testLogger()}
	fake := &fakeConsumer{partition: 0, values: []string{"a", "", "c"}}
	e.dial = func(ctx context.Context, tp kafka.TopicAndPartition) (partitionConsumer, error) {
		return fake, nil
	}

	matches, err := e.findManyOverPartitions(context.Background(), "t", []int32{0}, equalsPredicate("c"), Restrictions{}, 0, nil, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(2), matches[0].Offset)
	assert.Equal(t, []int64{0, 1, 2, 3}, fake.fetchesAsked)
}

func TestGetStartingOffsetWithGroupRestriction(t *testing.T) {
	fake := &fakeConsumer{
		partition: 0,
		values:    []string{"a", "b", "c", "d"},
		committed: map[string]int64{"g1": 2},
	}
	start, err := getStartingOffset(context.Background(), fake, Restrictions{GroupID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), start)
}

func TestGetStartingOffsetSentinelFallsBackToMin(t *testing.T) {
	fake := &fakeConsumer{
		partition: 0,
		values:    []string{"a", "b", "c"},
		committed: map[string]int64{"g1": -1},
	}
	start, err := getStartingOffset(context.Background(), fake, Restrictions{GroupID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), start)
}

func TestGetStartingOffsetWithDelta(t *testing.T) {
	fake := &fakeConsumer{
		partition: 0,
		values:    []string{"a", "b", "c", "d", "e"},
		committed: map[string]int64{"g1": 4},
	}
	start, err := getStartingOffset(context.Background(), fake, Restrictions{GroupID: "g1", Delta: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), start)
}

func TestGetStartingOffsetDeltaClampsAtMin(t *testing.T) {
	fake := &fakeConsumer{values: []string{"a", "b"}}
	start, err := getStartingOffset(context.Background(), fake, Restrictions{Delta: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(0), start)
}

func TestCountSumsMessagesAcrossPartitions(t *testing.T) {
	e := &Engine{logger: testLogger()}
	withFakes(e, map[int32][]string{
		0: {"a", "b", "c"},
		1: {"a", "b"},
	})

	total, err := e.countOverPartitions(context.Background(), "t", []int32{0, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestCancellationStopsScan(t *testing.T) {
	e := &Engine{logger: testLogger()}
	withFakes(e, map[int32][]string{0: {"a", "a", "a", "a", "a"}})

	var cancelled atomic.Bool
	cancelled.Store(true)

	matches, err := e.findManyOverPartitions(context.Background(), "t", []int32{0}, equalsPredicate("a"), Restrictions{}, 0, nil, &cancelled)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
