package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeWhitespace(t *testing.T) {
	tokens, err := Tokenize("zget /brokers/ids/1 -t json")
	require.NoError(t, err)

	var texts []string
	for _, tok := range tokens {
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{"zget", "/brokers/ids/1", "-t", "json"}, texts)
}

func TestTokenizeQuotedWithSpaces(t *testing.T) {
	tokens, err := Tokenize(`zput /x "hello world"`)
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "hello world", tokens[2].Text)
	assert.False(t, tokens[2].Shell)
}

func TestTokenizeBacktickIsShellFlagged(t *testing.T) {
	tokens, err := Tokenize("`ls -la`")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.True(t, tokens[0].Shell)
	assert.Equal(t, "ls -la", tokens[0].Text)
}

func TestTokenizeEscapedQuote(t *testing.T) {
	tokens, err := Tokenize(`zput /x "a\"b"`)
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, `a"b`, tokens[2].Text)
}

func TestTokenizeUnterminatedQuoteFails(t *testing.T) {
	_, err := Tokenize(`zput /x "unterminated`)
	require.Error(t, err)
}
