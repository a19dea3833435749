package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretCommandLineUnknownCommand(t *testing.T) {
	ctx := newTestContext(t)
	repl := NewREPL(ctx, nil, strings.NewReader(""), &bytes.Buffer{})

	_, err := repl.InterpretCommandLine(context.Background(), "bogus")
	require.Error(t, err)
	shErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrKindInvalidArgs, shErr.Kind)
}

func TestInterpretCommandLineExecutesAndAutoSwitches(t *testing.T) {
	ctx := newTestContext(t)
	core := &fakeModule{name: coreModuleName, commands: []Command{{Name: "zls", Handler: noopHandler}}}
	probeMod := &fakeModule{name: "probe", commands: []Command{{Name: "kping", Handler: noopHandler}}}
	require.NoError(t, ctx.Install(core, probeMod))
	ctx.SetActiveModule(core)

	repl := NewREPL(ctx, nil, strings.NewReader(""), &bytes.Buffer{})
	_, err := repl.InterpretCommandLine(context.Background(), "kping")
	require.NoError(t, err)
	assert.Equal(t, probeMod, ctx.ActiveModule())
}

func TestRunPrintsSyntaxErrorForUnknownCommand(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.Install(&fakeModule{name: coreModuleName}))

	var out bytes.Buffer
	repl := NewREPL(ctx, nil, strings.NewReader("bogus\n"), &out)
	require.NoError(t, repl.Run(context.Background()))
	assert.Contains(t, out.String(), "Syntax error:")
}

func TestRunPrintsRuntimeErrorForHandlerFailure(t *testing.T) {
	ctx := newTestContext(t)
	failing := Command{Name: "fails", Handler: func(context.Context, *Context, *Args) (interface{}, error) {
		return nil, errors.New("boom")
	}}
	require.NoError(t, ctx.Install(&fakeModule{name: coreModuleName, commands: []Command{failing}}))

	var out bytes.Buffer
	repl := NewREPL(ctx, nil, strings.NewReader("fails\n"), &out)
	require.NoError(t, repl.Run(context.Background()))
	assert.Contains(t, out.String(), "Runtime error:")
}
