// Package canon implements a fixed canonical value tree and the stable
// byte-serialization and hashing used to establish a signed artifact's
// trust root. It deliberately does not accept arbitrary Go values: only
// the Node kinds below are representable, closing off the ambiguity
// around floats, NaN, and map iteration order that an untyped object
// graph would otherwise carry.
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which of the six representable shapes a Node holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindString
	KindList
	KindMap
)

// Node is the canonical IR: null | bool | int64 | string | list | map.
// Exactly one of the typed fields is meaningful, selected by Kind.
type Node struct {
	Kind Kind
	Bool bool
	Int  int64
	Str  string
	List []Node
	Map  map[string]Node
}

func Null() Node                       { return Node{Kind: KindNull} }
func Bool(b bool) Node                 { return Node{Kind: KindBool, Bool: b} }
func Int(n int64) Node                 { return Node{Kind: KindInt, Int: n} }
func String(s string) Node             { return Node{Kind: KindString, Str: s} }
func List(items []Node) Node           { return Node{Kind: KindList, List: items} }
func Map(m map[string]Node) Node       { return Node{Kind: KindMap, Map: m} }

// Serialize produces the canonical byte form of v: object keys sorted by
// Unicode code point, arrays left in original order, no insignificant
// whitespace, a fixed literal mapping for null/bool/numbers/strings.
func Serialize(v Node) ([]byte, error) {
	var buf []byte
	buf, err := appendNode(buf, v)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Hash returns the lowercase hex SHA-256 digest of v's canonical bytes.
func Hash(v Node) (string, error) {
	b, err := Serialize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func appendNode(buf []byte, v Node) ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return append(buf, "null"...), nil
	case KindBool:
		if v.Bool {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case KindInt:
		return strconv.AppendInt(buf, v.Int, 10), nil
	case KindString:
		return appendString(buf, v.Str), nil
	case KindList:
		buf = append(buf, '[')
		for i, item := range v.List {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendNode(buf, item)
			if err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return lessCodePoint(keys[i], keys[j]) })
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendString(buf, k)
			buf = append(buf, ':')
			var err error
			buf, err = appendNode(buf, v.Map[k])
			if err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	default:
		return nil, fmt.Errorf("canon: unrepresentable node kind %d", v.Kind)
	}
}

// lessCodePoint compares strings as sequences of Unicode code points, which
// for valid UTF-8 agrees with plain byte-wise ordering — but that
// equivalence isn't the point; it's spelled out in code-point terms so the
// sort key matches the canonical form's own definition, not an accident of
// Go's string representation.
func lessCodePoint(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if ra[i] != rb[i] {
			return ra[i] < rb[i]
		}
	}
	return len(ra) < len(rb)
}

func appendString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for _, r := range s {
		switch r {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			if r < 0x20 {
				buf = append(buf, []byte(fmt.Sprintf(`\u%04x`, r))...)
			} else {
				buf = append(buf, []byte(string(r))...)
			}
		}
	}
	return append(buf, '"')
}

// Equal reports whether two nodes are structurally identical.
func Equal(a, b Node) bool {
	ba, err := Serialize(a)
	if err != nil {
		return false
	}
	bb, err := Serialize(b)
	if err != nil {
		return false
	}
	return strings.Compare(string(ba), string(bb)) == 0
}
