package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kafka-ops/trifecta/telemetry"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	cfg := &Config{}
	cfg.SetDefaults()
	metrics := telemetry.NewCollector(func() bool { return true })
	return NewContext(cfg, zap.NewNop(), nil, metrics)
}

func TestTwoPhaseConstructionInstallActivatesFirstModule(t *testing.T) {
	ctx := newTestContext(t)
	assert.Nil(t, ctx.ActiveModule())

	core := &fakeModule{name: coreModuleName, commands: []Command{{Name: "zls", Handler: noopHandler}}}
	probe := &fakeModule{name: "probe", commands: []Command{{Name: "kping", Handler: noopHandler}}}
	require.NoError(t, ctx.Install(core, probe))

	assert.Equal(t, core, ctx.ActiveModule())
	_, ok := ctx.Lookup("kping")
	assert.True(t, ok)
}

func TestIndependentContextsDoNotShareState(t *testing.T) {
	a := newTestContext(t)
	b := newTestContext(t)

	coreA := &fakeModule{name: coreModuleName}
	coreB := &fakeModule{name: coreModuleName}
	require.NoError(t, a.Install(coreA))
	require.NoError(t, b.Install(coreB))

	a.Vars.Set("x", "1")
	_, ok := b.Vars.Get("x")
	assert.False(t, ok, "session vars must not leak between independently constructed contexts")

	assert.NotSame(t, a.ActiveModule(), b.ActiveModule())
	a.ZkCwd = "/brokers"
	assert.Equal(t, "/", b.ZkCwd)
}
