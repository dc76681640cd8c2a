// Package filter implements sieve's predicate language: typed comparators,
// the FilterNode AST they compose into, normalization, priority-based
// reordering, and the builder surface used to construct filters.
package filter

import (
	"cmp"
	"math/big"
	"regexp"
	"strings"

	"github.com/holiman/uint256"
)

// CompiledPattern holds a pre-compiled regular expression for
// StringCondition{Op: StringMatches}. Compiling once at build time rather
// than per-evaluation keeps regex matching off the per-event allocation path.
type CompiledPattern struct {
	re *regexp.Regexp
}

// CompilePattern compiles a regular expression for use with StringMatches.
func CompilePattern(expr string) (*CompiledPattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &CompiledPattern{re: re}, nil
}

// NumOp is the comparator a numeric condition applies.
type NumOp int

const (
	OpGreaterThan NumOp = iota
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
	OpEqual
	OpNotEqual
	OpBetween
	OpOutside
)

// NumericCondition compares a fixed-width ordered value against one or two
// bounds. It is generic over the builtin widths sieve supports natively
// (uint8 for transaction type, uint64 for gas/nonce/index-shaped fields);
// wider widths use BigNumericCondition and U256Condition, since *big.Int and
// *uint256.Int do not satisfy cmp.Ordered.
type NumericCondition[T cmp.Ordered] struct {
	Op   NumOp
	A, B T
}

func (c NumericCondition[T]) Evaluate(v T) bool {
	switch c.Op {
	case OpGreaterThan:
		return v > c.A
	case OpGreaterThanOrEqual:
		return v >= c.A
	case OpLessThan:
		return v < c.A
	case OpLessThanOrEqual:
		return v <= c.A
	case OpEqual:
		return v == c.A
	case OpNotEqual:
		return v != c.A
	case OpBetween:
		return v >= c.A && v <= c.B
	case OpOutside:
		return v < c.A || v > c.B
	default:
		return false
	}
}

// BigNumericCondition is NumericCondition for u128-width fields (gas price,
// max fee per gas, max priority fee), represented as *big.Int.
type BigNumericCondition struct {
	Op   NumOp
	A, B *big.Int
}

func (c BigNumericCondition) Evaluate(v *big.Int) bool {
	if v == nil {
		return false
	}
	switch c.Op {
	case OpGreaterThan:
		return v.Cmp(c.A) > 0
	case OpGreaterThanOrEqual:
		return v.Cmp(c.A) >= 0
	case OpLessThan:
		return v.Cmp(c.A) < 0
	case OpLessThanOrEqual:
		return v.Cmp(c.A) <= 0
	case OpEqual:
		return v.Cmp(c.A) == 0
	case OpNotEqual:
		return v.Cmp(c.A) != 0
	case OpBetween:
		return v.Cmp(c.A) >= 0 && v.Cmp(c.B) <= 0
	case OpOutside:
		return v.Cmp(c.A) < 0 || v.Cmp(c.B) > 0
	default:
		return false
	}
}

// U256Condition is NumericCondition for u256-width fields (transaction and
// pool value), represented with holiman/uint256 for allocation-free arithmetic
// on the hot evaluation path.
type U256Condition struct {
	Op   NumOp
	A, B *uint256.Int
}

func (c U256Condition) Evaluate(v *uint256.Int) bool {
	if v == nil {
		return false
	}
	switch c.Op {
	case OpGreaterThan:
		return v.Cmp(c.A) > 0
	case OpGreaterThanOrEqual:
		return v.Cmp(c.A) >= 0
	case OpLessThan:
		return v.Cmp(c.A) < 0
	case OpLessThanOrEqual:
		return v.Cmp(c.A) <= 0
	case OpEqual:
		return v.Cmp(c.A) == 0
	case OpNotEqual:
		return v.Cmp(c.A) != 0
	case OpBetween:
		return v.Cmp(c.A) >= 0 && v.Cmp(c.B) <= 0
	case OpOutside:
		return v.Cmp(c.A) < 0 || v.Cmp(c.B) > 0
	default:
		return false
	}
}

// StringOp is the comparator a StringCondition applies.
type StringOp int

const (
	StringEqual StringOp = iota
	StringContains
	StringStartsWith
	StringEndsWith
	StringMatches
)

// StringCondition compares a string-shaped field (addresses and hashes are
// compared as their 0x-prefixed hex strings, matching how sieve's builder
// accepts them). Matches uses Go's stdlib regexp, the ecosystem-standard
// engine; there is no need to reach for a third-party regex crate the way
// the reference implementation does.
type StringCondition struct {
	Op      StringOp
	Value   string
	Pattern *CompiledPattern // populated only for StringMatches
}

func (c StringCondition) Evaluate(v string) bool {
	switch c.Op {
	case StringEqual:
		return v == c.Value
	case StringContains:
		return strings.Contains(v, c.Value)
	case StringStartsWith:
		return strings.HasPrefix(v, c.Value)
	case StringEndsWith:
		return strings.HasSuffix(v, c.Value)
	case StringMatches:
		if c.Pattern == nil {
			return false
		}
		return c.Pattern.re.MatchString(v)
	default:
		return false
	}
}

// ArrayOp is the comparator an ArrayCondition applies.
type ArrayOp int

const (
	ArrayContains ArrayOp = iota
	ArrayNotIn
	ArrayEmpty
	ArrayNotEmpty
)

// ArrayCondition compares a slice-shaped field (access lists, topics).
type ArrayCondition[T comparable] struct {
	Op     ArrayOp
	Value  T
	Values []T
}

func (c ArrayCondition[T]) Evaluate(v []T) bool {
	switch c.Op {
	case ArrayContains:
		for _, x := range v {
			if x == c.Value {
				return true
			}
		}
		return false
	case ArrayNotIn:
		for _, x := range v {
			for _, excluded := range c.Values {
				if x == excluded {
					return false
				}
			}
		}
		return true
	case ArrayEmpty:
		return len(v) == 0
	case ArrayNotEmpty:
		return len(v) != 0
	default:
		return false
	}
}
