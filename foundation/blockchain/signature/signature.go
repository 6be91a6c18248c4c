// Package signature provides the fingerprinting support every node on the
// network must agree on: a canonical encoding of a value and the SHA-256
// digest of that encoding.
package signature

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================

// Hash returns the hex encoded SHA-256 digest of the canonical encoding
// of the value. Two values with the same content produce the same hash
// no matter the order their fields were declared or inserted in.
func Hash(value any) string {
	data, err := Canonical(value)
	if err != nil {
		return ZeroHash
	}

	return Digest(data)
}

// Digest returns the lowercase hex encoded SHA-256 digest of the data.
func Digest(data []byte) string {
	hash := sha256.Sum256(data)
	return common.Bytes2Hex(hash[:])
}

// Canonical produces the encoding used for hashing. The value is marshaled
// to JSON and then re-encoded with object keys sorted, ", " and ": "
// separators and ASCII only string escapes. This is the byte layout produced
// by the reference nodes on the network, so any change here forks the chain.
func Canonical(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var buf bytes.Buffer
	if err := encode(&buf, generic); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// FormatFloat renders a float the way the reference nodes do: the shortest
// representation that round trips, always carrying a fractional part or
// an exponent.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}

	return s + ".0"
}

// =============================================================================

// encode writes the generic JSON value into the buffer.
func encode(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")

	case bool:
		buf.WriteString(strconv.FormatBool(v))

	case json.Number:
		buf.WriteString(v.String())

	case string:
		encodeString(buf, v)

	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteString(", ")
			}
			if err := encode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteString(", ")
			}
			encodeString(buf, key)
			buf.WriteString(": ")
			if err := encode(buf, v[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')

	default:
		return fmt.Errorf("unsupported type %T", value)
	}

	return nil
}

// encodeString writes a quoted string using only ASCII characters. Anything
// outside of printable ASCII is written as a \uXXXX escape, using surrogate
// pairs for runes beyond the basic multilingual plane.
func encodeString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"

	writeU := func(r rune) {
		buf.WriteString(`\u`)
		buf.WriteByte(hex[(r>>12)&0xF])
		buf.WriteByte(hex[(r>>8)&0xF])
		buf.WriteByte(hex[(r>>4)&0xF])
		buf.WriteByte(hex[r&0xF])
	}

	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			switch {
			case r < 0x20:
				writeU(r)
			case r < 0x7F:
				buf.WriteRune(r)
			case r <= 0xFFFF:
				writeU(r)
			default:
				r -= 0x10000
				writeU(0xD800 + (r>>10)&0x3FF)
				writeU(0xDC00 + r&0x3FF)
			}
		}
	}
	buf.WriteByte('"')
}
