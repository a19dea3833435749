// Package codec implements the typed value encoder/decoder shared between
// the ZooKeeper view and the Kafka partition consumer: every byte array that
// either subsystem reads or writes carries one of the types in Type.
package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Type names a value encoding recognized by Encode/Decode.
type Type string

const (
	TypeBytes  Type = "bytes"
	TypeChar   Type = "char"
	TypeShort  Type = "short"
	TypeInt    Type = "int"
	TypeLong   Type = "long"
	TypeFloat  Type = "float"
	TypeDouble Type = "double"
	TypeString Type = "string"
	TypeText   Type = "text"
	TypeJSON   Type = "json"
)

// Error is the taxonomy of failures this package returns; callers switch on
// Kind rather than on the error's formatted message.
type Error struct {
	Kind string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// ErrKindInvalidType and ErrKindInvalidLiteral are the two Error.Kind values
// this package produces.
const (
	ErrKindInvalidType    = "InvalidType"
	ErrKindInvalidLiteral = "InvalidLiteral"
)

func invalidType(t Type) error {
	return &Error{Kind: ErrKindInvalidType, Msg: fmt.Sprintf("invalid type: %q", t)}
}

func invalidLiteral(t Type, text string, cause error) error {
	msg := fmt.Sprintf("invalid literal %q for type %s", text, t)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Error{Kind: ErrKindInvalidLiteral, Msg: msg}
}

var hexBytePattern = regexp.MustCompile(`^([0-9a-fA-F]{2})(\.[0-9a-fA-F]{2})*$`)

// Encode converts the textual literal text, interpreted as typ, into its
// canonical byte array representation.
func Encode(text string, typ Type) ([]byte, error) {
	switch typ {
	case TypeBytes:
		return encodeBytes(text)
	case TypeChar:
		return encodeChar(text)
	case TypeShort:
		return encodeInt(text, typ, 16)
	case TypeInt:
		return encodeInt(text, typ, 32)
	case TypeLong:
		return encodeInt(text, typ, 64)
	case TypeFloat:
		return encodeFloat(text, typ)
	case TypeDouble:
		return encodeDouble(text, typ)
	case TypeString, TypeText:
		return unescape(text), nil
	case TypeJSON:
		return encodeJSON(text)
	default:
		return nil, invalidType(typ)
	}
}

// Decode converts a byte array previously produced by Encode (or read from
// Kafka/ZooKeeper) back into its textual literal, interpreted as typ.
func Decode(data []byte, typ Type) (string, error) {
	switch typ {
	case TypeBytes:
		return decodeBytes(data), nil
	case TypeChar:
		return decodeChar(data)
	case TypeShort:
		return decodeInt(data, typ, 16)
	case TypeInt:
		return decodeInt(data, typ, 32)
	case TypeLong:
		return decodeInt(data, typ, 64)
	case TypeFloat:
		return decodeFloat(data, typ)
	case TypeDouble:
		return decodeDouble(data, typ)
	case TypeString, TypeText:
		return string(data), nil
	case TypeJSON:
		return decodeJSON(data, typ)
	default:
		return "", invalidType(typ)
	}
}

func encodeBytes(text string) ([]byte, error) {
	if text == "" {
		return []byte{}, nil
	}
	if !hexBytePattern.MatchString(text) {
		return nil, invalidLiteral(TypeBytes, text, nil)
	}
	tokens := strings.Split(text, ".")
	out := make([]byte, len(tokens))
	for i, tok := range tokens {
		b, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return nil, invalidLiteral(TypeBytes, text, err)
		}
		out[i] = byte(b)
	}
	return out, nil
}

func decodeBytes(data []byte) string {
	tokens := make([]string, len(data))
	for i, b := range data {
		tokens[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(tokens, ".")
}

func encodeChar(text string) ([]byte, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, invalidLiteral(TypeChar, text, nil)
	}
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(runes[0]))
	return buf, nil
}

func decodeChar(data []byte) (string, error) {
	if len(data) != 2 {
		return "", invalidLiteral(TypeChar, decodeBytes(data), nil)
	}
	return string(rune(binary.BigEndian.Uint16(data))), nil
}

func encodeInt(text string, typ Type, bits int) ([]byte, error) {
	v, err := strconv.ParseInt(text, 10, bits)
	if err != nil {
		return nil, invalidLiteral(typ, text, err)
	}
	switch bits {
	case 16:
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, uint16(v))
		return buf, nil
	case 32:
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(v))
		return buf, nil
	default:
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(v))
		return buf, nil
	}
}

func decodeInt(data []byte, typ Type, bits int) (string, error) {
	want := bits / 8
	if len(data) != want {
		return "", invalidLiteral(typ, decodeBytes(data), nil)
	}
	switch bits {
	case 16:
		return strconv.FormatInt(int64(int16(binary.BigEndian.Uint16(data))), 10), nil
	case 32:
		return strconv.FormatInt(int64(int32(binary.BigEndian.Uint32(data))), 10), nil
	default:
		return strconv.FormatInt(int64(binary.BigEndian.Uint64(data)), 10), nil
	}
}

func encodeFloat(text string, typ Type) ([]byte, error) {
	v, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return nil, invalidLiteral(typ, text, err)
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, math.Float32bits(float32(v)))
	return buf, nil
}

func decodeFloat(data []byte, typ Type) (string, error) {
	if len(data) != 4 {
		return "", invalidLiteral(typ, decodeBytes(data), nil)
	}
	v := math.Float32frombits(binary.BigEndian.Uint32(data))
	return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
}

func encodeDouble(text string, typ Type) ([]byte, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, invalidLiteral(typ, text, err)
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	return buf, nil
}

func decodeDouble(data []byte, typ Type) (string, error) {
	if len(data) != 8 {
		return "", invalidLiteral(typ, decodeBytes(data), nil)
	}
	v := math.Float64frombits(binary.BigEndian.Uint64(data))
	return strconv.FormatFloat(v, 'g', -1, 64), nil
}

func encodeJSON(text string) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, invalidLiteral(TypeJSON, text, err)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, invalidLiteral(TypeJSON, text, err)
	}
	return pretty, nil
}

func decodeJSON(data []byte, typ Type) (string, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return "", invalidLiteral(typ, string(data), err)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", invalidLiteral(typ, string(data), err)
	}
	return string(pretty), nil
}

// unescape applies backslash escapes as in a standard shell string: \n, \t,
// \r, \\, \", \' and \xHH. Anything else passes through unchanged.
func unescape(text string) []byte {
	var out bytes.Buffer
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '\\' || i == len(runes)-1 {
			out.WriteRune(c)
			continue
		}
		i++
		switch runes[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case '\\':
			out.WriteByte('\\')
		case '"':
			out.WriteByte('"')
		case '\'':
			out.WriteByte('\'')
		case 'x':
			if i+2 < len(runes) {
				if b, err := strconv.ParseUint(string(runes[i+1:i+3]), 16, 8); err == nil {
					out.WriteByte(byte(b))
					i += 2
					continue
				}
			}
			out.WriteRune(runes[i])
		default:
			out.WriteRune('\\')
			out.WriteRune(runes[i])
		}
	}
	return out.Bytes()
}

var (
	doublePattern = regexp.MustCompile(`^-?\d+\.\d+$`)
	longPattern   = regexp.MustCompile(`^\d+$`)
)

// Guess infers the type of an untagged literal for zput, testing double
// before long before bytes before string.
func Guess(text string) Type {
	if doublePattern.MatchString(text) {
		return TypeDouble
	}
	if longPattern.MatchString(text) {
		return TypeLong
	}
	if hexBytePattern.MatchString(text) {
		return TypeBytes
	}
	return TypeString
}
