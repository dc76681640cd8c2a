package filter

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// ResolvePath walks a dotted path ("batch.index", "l1BlockNumber") through a
// generic JSON projection of an event, the same way the reference
// implementation resolves DynFieldCondition via serde_json::to_value: the
// event is round-tripped through encoding/json into map[string]any rather
// than matched field-by-field, so a new dyn field needs no new Go type.
func ResolvePath(root any, path string) (any, bool) {
	cur := root
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// ProjectJSON marshals v to its generic JSON representation for dyn-field
// resolution.
func ProjectJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EvaluateValue applies a width-tagged ValueCondition to a raw JSON value.
// String conditions compare the value's JSON string form directly; numeric
// conditions parse it as a 0x-prefixed or decimal integer literal, matching
// how sieve's own RPC payloads encode quantities.
func EvaluateValue(cond ValueCondition, raw any) bool {
	switch cond.Kind {
	case ValueString:
		s, ok := raw.(string)
		if !ok {
			return false
		}
		return cond.Str.Evaluate(s)
	case ValueU64:
		n, ok := parseUint64(raw)
		if !ok {
			return false
		}
		return cond.U64.Evaluate(n)
	case ValueU128:
		n, ok := parseBigInt(raw)
		if !ok {
			return false
		}
		return cond.U128.Evaluate(n)
	case ValueU256:
		n, ok := parseUint256(raw)
		if !ok {
			return false
		}
		return cond.U256.Evaluate(n)
	default:
		return false
	}
}

func parseUint64(raw any) (uint64, bool) {
	switch v := raw.(type) {
	case uint64:
		return v, true
	case *big.Int:
		return v.Uint64(), true
	case float64:
		return uint64(v), true
	case string:
		if strings.HasPrefix(v, "0x") {
			n, err := strconv.ParseUint(v[2:], 16, 64)
			return n, err == nil
		}
		n, err := strconv.ParseUint(v, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// parseBigInt recovers a *big.Int from either a decode.Decoded value (already
// a *big.Int, per its own type contract) or a JSON-projected dyn-field value
// (a 0x-prefixed or decimal string).
func parseBigInt(raw any) (*big.Int, bool) {
	switch v := raw.(type) {
	case *big.Int:
		return v, true
	case string:
		if strings.HasPrefix(v, "0x") {
			return new(big.Int).SetString(v[2:], 16)
		}
		return new(big.Int).SetString(v, 10)
	default:
		return nil, false
	}
}

// parseUint256 mirrors parseBigInt for the U256 width: a decoded ABI integer
// arrives as a *big.Int and is converted (failing on overflow), a dyn-field
// value as a 0x-prefixed hex or decimal string.
func parseUint256(raw any) (*uint256.Int, bool) {
	switch v := raw.(type) {
	case *uint256.Int:
		return v, true
	case *big.Int:
		n, overflow := uint256.FromBig(v)
		if overflow {
			return nil, false
		}
		return n, true
	case string:
		n, err := uint256.FromHex(v)
		if err != nil {
			n2, err2 := uint256.FromDecimal(v)
			if err2 != nil {
				return nil, false
			}
			return n2, true
		}
		return n, true
	default:
		return nil, false
	}
}
