package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecordBatchesEmpty(t *testing.T) {
	msgs, err := decodeRecordBatches(0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDecodeRecordBatchesTruncated(t *testing.T) {
	// Fewer than the minimum record-batch header size; must not panic and
	// must not be treated as a hard error, since a short trailing batch
	// can legitimately happen at the end of a fetch response.
	msgs, err := decodeRecordBatches(0, 10, []byte{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestReadRawRecordsEmpty(t *testing.T) {
	records := readRawRecords(0, nil)
	assert.Empty(t, records)
}

func TestReadRawRecordsTruncated(t *testing.T) {
	records := readRawRecords(3, []byte{0x02, 0x01})
	assert.Empty(t, records)
}
