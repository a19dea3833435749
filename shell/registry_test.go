package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModule struct {
	name     string
	commands []Command
}

func (m *fakeModule) Name() string                     { return m.name }
func (m *fakeModule) Label() string                    { return m.name }
func (m *fakeModule) Prompt() string                    { return m.name + "> " }
func (m *fakeModule) Commands() []Command               { return m.commands }
func (m *fakeModule) SessionVars() map[string]string    { return nil }
func (m *fakeModule) Shutdown() error                   { return nil }

func noopHandler(context.Context, *Context, *Args) (interface{}, error) { return nil, nil }

func TestInstallMergesCommands(t *testing.T) {
	r := newRegistry()
	a := &fakeModule{name: "a", commands: []Command{{Name: "foo", Handler: noopHandler}}}
	b := &fakeModule{name: "b", commands: []Command{{Name: "bar", Handler: noopHandler}}}

	require.NoError(t, r.Install(a, b))
	_, ok := r.Lookup("foo")
	assert.True(t, ok)
	_, ok = r.Lookup("bar")
	assert.True(t, ok)
}

func TestInstallDuplicateCommandNameFails(t *testing.T) {
	r := newRegistry()
	a := &fakeModule{name: "a", commands: []Command{{Name: "foo", Handler: noopHandler}}}
	b := &fakeModule{name: "b", commands: []Command{{Name: "foo", Handler: noopHandler}}}

	require.Error(t, r.Install(a, b))
}

func TestMaybeAutoSwitchNonCoreModuleSwitches(t *testing.T) {
	r := newRegistry()
	core := &fakeModule{name: coreModuleName}
	probe := &fakeModule{name: "probe"}
	require.NoError(t, r.Install(core, probe))
	r.SetActiveModule(core)

	r.MaybeAutoSwitch(Command{Name: "kping", Module: "probe"})
	assert.Equal(t, probe, r.Active())
}

func TestMaybeAutoSwitchCoreNonPromptAwareStays(t *testing.T) {
	r := newRegistry()
	core := &fakeModule{name: coreModuleName}
	probe := &fakeModule{name: "probe"}
	require.NoError(t, r.Install(core, probe))
	r.SetActiveModule(probe)

	r.MaybeAutoSwitch(Command{Name: "zls", Module: coreModuleName, PromptAware: false})
	assert.Equal(t, probe, r.Active())
}

func TestMaybeAutoSwitchCorePromptAwareSwitches(t *testing.T) {
	r := newRegistry()
	core := &fakeModule{name: coreModuleName}
	probe := &fakeModule{name: "probe"}
	require.NoError(t, r.Install(core, probe))
	r.SetActiveModule(probe)

	r.MaybeAutoSwitch(Command{Name: "zls", Module: coreModuleName, PromptAware: true})
	assert.Equal(t, core, r.Active())
}
