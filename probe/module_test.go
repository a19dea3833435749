package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCanaryPredicateMatchesOnlyItsOwnValue(t *testing.T) {
	pred := canaryPredicate("abc-123")

	assert.True(t, pred([]byte("abc-123"), []byte("any-key")))
	assert.False(t, pred([]byte("abc-124"), nil))
	assert.False(t, pred(nil, nil))
}

func TestModuleCommandsDeclaresPromptAwareCommands(t *testing.T) {
	m := NewModule(zap.NewNop())
	cmds := m.Commands()
	require.Len(t, cmds, 3)
	for _, cmd := range cmds {
		assert.True(t, cmd.PromptAware, "command %q should be promptAware", cmd.Name)
	}
}
