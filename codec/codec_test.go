package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		typ  Type
		text string
	}{
		{TypeShort, "1234"},
		{TypeInt, "-4242"},
		{TypeLong, "9007199254740993"},
		{TypeFloat, "3.5"},
		{TypeDouble, "-3.14"},
		{TypeChar, "A"},
		{TypeString, `hello\nworld`},
		{TypeJSON, `{"a":1,"b":[1,2,3]}`},
		{TypeBytes, "de.ad.be.ef"},
	}

	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			encoded, err := Encode(tc.text, tc.typ)
			require.NoError(t, err)

			decoded, err := Decode(encoded, tc.typ)
			require.NoError(t, err)

			switch tc.typ {
			case TypeString:
				assert.Equal(t, "hello\nworld", decoded)
			case TypeJSON:
				reEncoded, err := Encode(decoded, TypeJSON)
				require.NoError(t, err)
				assert.Equal(t, encoded, reEncoded)
			default:
				assert.Equal(t, tc.text, decoded)
			}
		})
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte("x"), Type("nope"))
	require.Error(t, err)
	var typedErr *Error
	require.ErrorAs(t, err, &typedErr)
	assert.Equal(t, ErrKindInvalidType, typedErr.Kind)
}

func TestEncodeInvalidLiteral(t *testing.T) {
	_, err := Encode("not-a-number", TypeLong)
	require.Error(t, err)
	var typedErr *Error
	require.ErrorAs(t, err, &typedErr)
	assert.Equal(t, ErrKindInvalidLiteral, typedErr.Kind)
}

func TestGuess(t *testing.T) {
	assert.Equal(t, TypeDouble, Guess("-3.14"))
	assert.Equal(t, TypeLong, Guess("42"))
	assert.Equal(t, TypeBytes, Guess("de.ad.be.ef"))
	assert.Equal(t, TypeString, Guess("hello"))
	assert.NotPanics(t, func() { Guess("3.14.15") })
	assert.Equal(t, TypeString, Guess("3.14.15"))
}

func TestBytesCaseInsensitive(t *testing.T) {
	lower, err := Encode("de.ad.be.ef", TypeBytes)
	require.NoError(t, err)
	upper, err := Encode("DE.AD.BE.EF", TypeBytes)
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}
