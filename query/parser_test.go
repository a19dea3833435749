package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleSelect(t *testing.T) {
	q, err := Parse(`select key,value from t where value = 'b' limit 10`)
	require.NoError(t, err)

	assert.Equal(t, []string{"key", "value"}, q.Fields)
	assert.Equal(t, "t", q.Topic)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, Comparison{Field: "value", Op: "=", Value: "b"}, q.Where)
}

func TestParseStar(t *testing.T) {
	q, err := Parse(`select * from orders`)
	require.NoError(t, err)
	assert.Nil(t, q.Fields)
	assert.Equal(t, "orders", q.Topic)
	assert.Nil(t, q.Where)
}

func TestParseAndConjunction(t *testing.T) {
	q, err := Parse(`select * from orders where key = 'k1' and value contains 'err'`)
	require.NoError(t, err)

	and, ok := q.Where.(And)
	require.True(t, ok)
	require.Len(t, and.Children, 2)
	assert.Equal(t, Comparison{Field: "key", Op: "=", Value: "k1"}, and.Children[0])
	assert.Equal(t, Comparison{Field: "value", Op: "contains", Value: "err"}, and.Children[1])
}

func TestParseWithRestrictions(t *testing.T) {
	q, err := Parse(`select * from orders with groupid=g1 delta=5`)
	require.NoError(t, err)
	assert.Equal(t, "g1", q.With.GroupID)
	assert.Equal(t, int64(5), q.With.Delta)
}

func TestParseMissingFrom(t *testing.T) {
	_, err := Parse(`select key value`)
	require.Error(t, err)
}

func TestParseQuotedLiteralWithSpaces(t *testing.T) {
	q, err := Parse(`select * from orders where value = 'hello world'`)
	require.NoError(t, err)
	assert.Equal(t, Comparison{Field: "value", Op: "=", Value: "hello world"}, q.Where)
}
