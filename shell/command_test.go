package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toks(ss ...string) []Token {
	out := make([]Token, len(ss))
	for i, s := range ss {
		out[i] = Token{Text: s}
	}
	return out
}

func TestAssembleRequiredAndOptional(t *testing.T) {
	cmd := Command{Name: "zls", Optional: []Param{{Name: "path", Optional: true}}}
	args, err := cmd.Assemble(toks("/brokers"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/brokers"}, args.Positional)
}

func TestAssembleMissingRequiredFails(t *testing.T) {
	cmd := Command{Name: "zcd", Required: []Param{{Name: "path"}}}
	_, err := cmd.Assemble(nil)
	require.Error(t, err)
	shErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrKindInvalidArgs, shErr.Kind)
}

func TestAssembleUnknownFlagFails(t *testing.T) {
	cmd := Command{Name: "zget", Required: []Param{{Name: "key"}}}
	_, err := cmd.Assemble(toks("/x", "-bogus", "v"))
	require.Error(t, err)
}

func TestAssembleFlagWithValue(t *testing.T) {
	cmd := Command{Name: "zget", Required: []Param{{Name: "key"}}, Flags: []FlagSpec{{Name: "t"}}}
	args, err := cmd.Assemble(toks("/x", "-t", "json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/x"}, args.Positional)
	v, ok := args.Flag("t")
	require.True(t, ok)
	assert.Equal(t, "json", v)
}

func TestAssembleBareFlag(t *testing.T) {
	cmd := Command{Name: "zrm", Required: []Param{{Name: "key"}}, Flags: []FlagSpec{{Name: "r", Bare: true}}}
	args, err := cmd.Assemble(toks("/x", "-r"))
	require.NoError(t, err)
	assert.True(t, args.Bare["r"])
}

func TestAssembleNegativeNumberIsNotAFlag(t *testing.T) {
	cmd := Command{Name: "seek", Required: []Param{{Name: "offset"}}}
	args, err := cmd.Assemble(toks("-5"))
	require.NoError(t, err)
	assert.Equal(t, []string{"-5"}, args.Positional)
}
