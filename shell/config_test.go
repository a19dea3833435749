package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateDelegatesToEachSubsection(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	// Defaults alone are incomplete: no seed brokers or zk servers are ever
	// defaulted in, so Validate must fail until the caller supplies them.
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka")

	cfg.Kafka.Brokers = []string{"localhost:9092"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zk")

	cfg.ZK.Servers = []string{"localhost:2181"}
	assert.NoError(t, cfg.Validate())
}
