package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaCodeErrNoError(t *testing.T) {
	require.NoError(t, kafkaCodeErr(0))
}

func TestKafkaCodeErrKnownCode(t *testing.T) {
	err := kafkaCodeErr(1)
	require.Error(t, err)

	var kerr *Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, ErrKindKafkaCode, kerr.Kind)
	assert.Equal(t, "OffsetOutOfRange", kerr.Msg)
}

func TestKafkaCodeErrUnrecognized(t *testing.T) {
	err := kafkaCodeErr(999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unrecognized Error Code 999")
}

func TestLeaderUnavailableError(t *testing.T) {
	err := leaderUnavailable("orders", 2)
	var kerr *Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, ErrKindLeaderUnavailable, kerr.Kind)
}
