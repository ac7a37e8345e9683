// Package keys implements typed tuple keys and their order-preserving byte
// encoding.
//
// A Key is a sequence of string and integer components. Encoded keys compare
// with bytes.Compare in the same order as the tuples compare component by
// component, and the encoding of a tuple prefix is always a byte prefix of
// the encoding of every tuple extending it. Every component is written with a
// type tag, so a decoded key reports whether a position held a string or an
// integer without looking at the value itself.
//
// The byte layout follows the ascending key encoding used by CockroachDB:
//
//	string:  0x12 <bytes, 0x00 escaped as 0x00 0xff> 0x00 0x01
//	integer: a length-tagged varint with tags in [0x80, 0xfd]
//
// Strings therefore sort before integers at the same position.
package keys

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	bytesMarker byte = 0x12

	escape      byte = 0x00
	escapedTerm byte = 0x01
	escaped00   byte = 0xff

	intMin      = 0x80
	intMaxWidth = 8
	intZero     = intMin + intMaxWidth
	intMax      = 0xfd
	intSmall    = intMax - intZero - intMaxWidth // 109
)

// Kind identifies the type of a key component.
type Kind uint8

const (
	// KindString marks a text component.
	KindString Kind = iota + 1
	// KindInt marks a signed integer component.
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Component is a single typed element of a Key.
type Component struct {
	kind Kind
	str  string
	num  int64
}

// String returns a text component.
func String(s string) Component {
	return Component{kind: KindString, str: s}
}

// Int returns an integer component.
func Int(v int64) Component {
	return Component{kind: KindInt, num: v}
}

// Kind reports the component type.
func (c Component) Kind() Kind { return c.kind }

// Str returns the text value and whether the component is a string.
func (c Component) Str() (string, bool) {
	return c.str, c.kind == KindString
}

// Int64 returns the integer value and whether the component is an integer.
func (c Component) Int64() (int64, bool) {
	return c.num, c.kind == KindInt
}

// Compare orders components the same way their encodings order.
func (c Component) Compare(o Component) int {
	if c.kind != o.kind {
		if c.kind < o.kind {
			return -1
		}
		return 1
	}
	if c.kind == KindString {
		return strings.Compare(c.str, o.str)
	}
	switch {
	case c.num < o.num:
		return -1
	case c.num > o.num:
		return 1
	}
	return 0
}

func (c Component) String() string {
	if c.kind == KindInt {
		return strconv.FormatInt(c.num, 10)
	}
	return strconv.Quote(c.str)
}

func (c Component) appendEncoded(b []byte) []byte {
	if c.kind == KindInt {
		return encodeVarint(b, c.num)
	}
	return encodeString(b, c.str)
}

// Key is an ordered tuple of components.
type Key []Component

// Make builds a Key from string, int and int64 values. It panics on any
// other type; callers pass literal schema components, not user input.
func Make(parts ...interface{}) Key {
	k := make(Key, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			k = append(k, String(v))
		case int:
			k = append(k, Int(int64(v)))
		case int64:
			k = append(k, Int(v))
		case Component:
			k = append(k, v)
		default:
			panic(fmt.Sprintf("keys: unsupported component type %T", p))
		}
	}
	return k
}

// Encode returns the order-preserving byte form of k.
func (k Key) Encode() []byte {
	var b []byte
	for _, c := range k {
		b = c.appendEncoded(b)
	}
	return b
}

// HasPrefix reports whether p is a leading sub-tuple of k.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i].Compare(p[i]) != 0 {
			return false
		}
	}
	return true
}

// Compare orders keys lexicographically by component. A key sorts before
// every key it is a strict prefix of.
func (k Key) Compare(o Key) int {
	for i := 0; i < len(k) && i < len(o); i++ {
		if c := k[i].Compare(o[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k) < len(o):
		return -1
	case len(k) > len(o):
		return 1
	}
	return 0
}

// Equal reports whether two keys hold the same components.
func (k Key) Equal(o Key) bool {
	return len(k) == len(o) && k.Compare(o) == 0
}

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, c := range k {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Decode parses an encoded key back into its components.
func Decode(b []byte) (Key, error) {
	var k Key
	for len(b) > 0 {
		switch m := b[0]; {
		case m == bytesMarker:
			rest, s, err := decodeString(b)
			if err != nil {
				return nil, err
			}
			k = append(k, String(s))
			b = rest
		case m >= intMin && m <= intMax:
			rest, v, err := decodeVarint(b)
			if err != nil {
				return nil, err
			}
			k = append(k, Int(v))
			b = rest
		default:
			return nil, fmt.Errorf("unknown component tag %#x at %q", m, b)
		}
	}
	return k, nil
}

// PrefixEnd returns the first byte string that sorts after every string
// with prefix b. It returns nil when no such bound exists, which callers
// treat as the end of the key space.
func PrefixEnd(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	end := append([]byte(nil), b...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// Next returns the smallest byte string that sorts strictly after b.
func Next(b []byte) []byte {
	next := make([]byte, len(b), len(b)+1)
	copy(next, b)
	return append(next, 0x00)
}

func encodeString(b []byte, s string) []byte {
	b = append(b, bytesMarker)
	data := []byte(s)
	for {
		i := bytes.IndexByte(data, escape)
		if i == -1 {
			break
		}
		b = append(b, data[:i]...)
		b = append(b, escape, escaped00)
		data = data[i+1:]
	}
	b = append(b, data...)
	return append(b, escape, escapedTerm)
}

func decodeString(b []byte) ([]byte, string, error) {
	if len(b) == 0 || b[0] != bytesMarker {
		return nil, "", fmt.Errorf("did not find string marker in %q", b)
	}
	b = b[1:]
	var r []byte
	for {
		i := bytes.IndexByte(b, escape)
		if i == -1 {
			return nil, "", fmt.Errorf("did not find terminator in %q", b)
		}
		if i+1 >= len(b) {
			return nil, "", fmt.Errorf("malformed escape in %q", b)
		}
		switch b[i+1] {
		case escapedTerm:
			r = append(r, b[:i]...)
			return b[i+2:], string(r), nil
		case escaped00:
			r = append(r, b[:i]...)
			r = append(r, 0x00)
		default:
			return nil, "", fmt.Errorf("unknown escape sequence %#x %#x", escape, b[i+1])
		}
		b = b[i+2:]
	}
}

func encodeVarint(b []byte, v int64) []byte {
	if v >= 0 {
		return encodeUvarint(b, uint64(v))
	}
	// Negative values keep the low n bytes behind a tag below intZero, where
	// n is the width of ^v. Wider values are more negative and get lower tags.
	u := uint64(^v)
	n := 1
	for n < 8 && u>>(8*n) != 0 {
		n++
	}
	b = append(b, byte(intZero-n))
	for i := n - 1; i >= 0; i-- {
		b = append(b, byte(v>>(8*i)))
	}
	return b
}

func encodeUvarint(b []byte, v uint64) []byte {
	if v <= intSmall {
		return append(b, intZero+byte(v))
	}
	n := 1
	for n < 8 && v>>(8*n) != 0 {
		n++
	}
	b = append(b, byte(intMax-8+n))
	for i := n - 1; i >= 0; i-- {
		b = append(b, byte(v>>(8*i)))
	}
	return b
}

func decodeVarint(b []byte) ([]byte, int64, error) {
	if len(b) == 0 {
		return nil, 0, fmt.Errorf("insufficient bytes to decode varint")
	}
	length := int(b[0]) - intZero
	if length < 0 {
		length = -length
		rest := b[1:]
		if len(rest) < length {
			return nil, 0, fmt.Errorf("insufficient bytes to decode varint: %q", rest)
		}
		var v int64
		for _, t := range rest[:length] {
			v = (v << 8) | int64(^t)
		}
		return rest[length:], ^v, nil
	}
	rem := b[1:]
	if length <= intSmall {
		return rem, int64(length), nil
	}
	length -= intSmall
	if length > 8 {
		return nil, 0, fmt.Errorf("invalid varint length %d", length)
	}
	if len(rem) < length {
		return nil, 0, fmt.Errorf("insufficient bytes to decode varint: %q", rem)
	}
	var u uint64
	for _, t := range rem[:length] {
		u = (u << 8) | uint64(t)
	}
	if u > math.MaxInt64 {
		return nil, 0, fmt.Errorf("varint %d overflows int64", u)
	}
	return rem[length:], int64(u), nil
}
