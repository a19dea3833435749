package query

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kafka-ops/trifecta/scan"
)

func TestCompileComparisonEquals(t *testing.T) {
	pred, err := compilePredicate(Comparison{Field: "value", Op: "=", Value: "b"})
	require.NoError(t, err)

	assert.True(t, pred([]byte("b"), []byte("k")))
	assert.False(t, pred([]byte("c"), []byte("k")))
}

func TestCompileComparisonUnknownField(t *testing.T) {
	_, err := compilePredicate(Comparison{Field: "bogus", Op: "=", Value: "b"})
	require.Error(t, err)
}

func TestCompileAndConjunction(t *testing.T) {
	pred, err := compilePredicate(And{Children: []Expr{
		Comparison{Field: "key", Op: "=", Value: "k1"},
		Comparison{Field: "value", Op: "contains", Value: "err"},
	}})
	require.NoError(t, err)

	assert.True(t, pred([]byte("some err here"), []byte("k1")))
	assert.False(t, pred([]byte("some err here"), []byte("k2")))
	assert.False(t, pred([]byte("fine"), []byte("k1")))
}

func TestProjectSelectedFields(t *testing.T) {
	m := scan.Match{Partition: 1, Offset: 5, Key: []byte("k1"), Value: []byte("v1")}
	row := project(m, []string{"key"}, NoopDecoder)

	assert.Equal(t, int32(1), row.Partition)
	assert.Equal(t, int64(5), row.Offset)
	assert.Equal(t, map[string]string{"key": "k1"}, row.Fields)
}

func TestProjectAllFieldsWhenNoneNamed(t *testing.T) {
	m := scan.Match{Partition: 0, Offset: 1, Key: []byte("k"), Value: []byte("v")}
	row := project(m, nil, NoopDecoder)

	assert.Equal(t, "k", row.Fields["key"])
	assert.Equal(t, "v", row.Fields["value"])
}

// TestEndToEndOrderingScenario mirrors property 10: a topic with 2
// partitions where partition 0 has values ["a","b","c"] and partition 1 has
// ["b","b"]; filtering for value='b' and sorting by partition then offset
// should produce (0,1), (1,0), (1,1).
func TestEndToEndOrderingScenario(t *testing.T) {
	matches := []scan.Match{
		{Partition: 1, Offset: 1, Key: []byte("k"), Value: []byte("b")},
		{Partition: 0, Offset: 1, Key: []byte("k"), Value: []byte("b")},
		{Partition: 1, Offset: 0, Key: []byte("k"), Value: []byte("b")},
	}

	pred, err := compilePredicate(Comparison{Field: "value", Op: "=", Value: "b"})
	require.NoError(t, err)

	var filtered []scan.Match
	for _, m := range matches {
		if pred(m.Value, m.Key) {
			filtered = append(filtered, m)
		}
	}
	require.Len(t, filtered, 3)

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Partition != filtered[j].Partition {
			return filtered[i].Partition < filtered[j].Partition
		}
		return filtered[i].Offset < filtered[j].Offset
	})
	assert.Equal(t, []scan.Match{
		{Partition: 0, Offset: 1, Key: []byte("k"), Value: []byte("b")},
		{Partition: 1, Offset: 0, Key: []byte("k"), Value: []byte("b")},
		{Partition: 1, Offset: 1, Key: []byte("k"), Value: []byte("b")},
	}, filtered)
}
