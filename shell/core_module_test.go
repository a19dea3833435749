package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cmdZcd is pure path logic over ZkCwd/ResolveZk and never touches the
// ZooKeeper connection itself, so it's exercisable without a live client.

func TestCmdZcdResolvesRelativePath(t *testing.T) {
	ctx := newTestContext(t)
	ctx.ZkCwd = "/brokers"

	result, err := cmdZcd(context.Background(), ctx, &Args{Positional: []string{"ids"}})
	require.NoError(t, err)
	assert.Equal(t, "/brokers/ids", result)
	assert.Equal(t, "/brokers/ids", ctx.ZkCwd)
}

func TestCmdZcdDotDotGoesToParent(t *testing.T) {
	ctx := newTestContext(t)
	ctx.ZkCwd = "/brokers/ids"

	result, err := cmdZcd(context.Background(), ctx, &Args{Positional: []string{".."}})
	require.NoError(t, err)
	assert.Equal(t, "/brokers", result)
	assert.Equal(t, "/brokers", ctx.ZkCwd)
}

func TestCoreModuleCommandsAreNotPromptAware(t *testing.T) {
	m := NewCoreModule()
	for _, cmd := range m.Commands() {
		assert.False(t, cmd.PromptAware, "core command %q should not be promptAware", cmd.Name)
	}
}
