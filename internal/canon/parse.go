package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/veridex/faceline/internal/corerr"
	"golang.org/x/text/unicode/norm"
)

// Parse decodes raw JSON into the canonical IR. Every string field is
// required to already be in NFC form — ingress normalizes nothing silently;
// non-NFC input is rejected so the canonical hash of a signed artifact can
// never depend on which of several Unicode-equivalent encodings a tool
// happened to emit. Non-integral numbers are rejected: the bank format
// carries no floats.
func Parse(raw []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Node{}, corerr.Wrap(corerr.EBankDefect, "bank artifact is not valid JSON", err)
	}
	if dec.More() {
		return Node{}, corerr.New(corerr.EBankDefect, "trailing content after top-level JSON value")
	}
	return fromAny(v)
}

func fromAny(v any) (Node, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		return numberNode(x)
	case string:
		return stringNode(x)
	case []any:
		items := make([]Node, len(x))
		for i, item := range x {
			n, err := fromAny(item)
			if err != nil {
				return Node{}, err
			}
			items[i] = n
		}
		return List(items), nil
	case map[string]any:
		m := make(map[string]Node, len(x))
		for k, item := range x {
			nk, err := stringNode(k)
			if err != nil {
				return Node{}, err
			}
			n, err := fromAny(item)
			if err != nil {
				return Node{}, err
			}
			m[nk.Str] = n
		}
		return Map(m), nil
	default:
		return Node{}, fmt.Errorf("canon: unrepresentable decoded type %T", v)
	}
}

func stringNode(s string) (Node, error) {
	if !norm.NFC.IsNormalString(s) {
		return Node{}, corerr.New(corerr.EBankDefect, fmt.Sprintf("textual field %q is not NFC-normalized", s))
	}
	return String(s), nil
}

func numberNode(num json.Number) (Node, error) {
	s := num.String()
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Node{}, corerr.New(corerr.EBankDefect, fmt.Sprintf("non-integral or non-representable number %q: the bank format carries no floats", s))
	}
	if !bi.IsInt64() {
		return Node{}, corerr.New(corerr.EBankDefect, fmt.Sprintf("integer %q overflows int64", s))
	}
	return Int(bi.Int64()), nil
}
