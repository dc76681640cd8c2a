package filter

import (
	"cmp"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/rawblock/sieve/pkg/chain"
	"github.com/rawblock/sieve/pkg/event"
)

// NumHandle is the fluent comparator surface for a fixed-width ordered
// field (uint8 transaction types, uint64 gas/nonce/index-shaped fields).
// Each method pushes a finished condition through sink rather than
// returning a value, so a single field accessor (e.g. TxBuilder.Gas) can
// hand back a handle whose methods all close over the same leaf slot.
type NumHandle[T cmp.Ordered] struct{ sink func(NumericCondition[T]) }

func (h NumHandle[T]) Gt(v T)         { h.sink(NumericCondition[T]{Op: OpGreaterThan, A: v}) }
func (h NumHandle[T]) Gte(v T)        { h.sink(NumericCondition[T]{Op: OpGreaterThanOrEqual, A: v}) }
func (h NumHandle[T]) Lt(v T)         { h.sink(NumericCondition[T]{Op: OpLessThan, A: v}) }
func (h NumHandle[T]) Lte(v T)        { h.sink(NumericCondition[T]{Op: OpLessThanOrEqual, A: v}) }
func (h NumHandle[T]) Eq(v T)         { h.sink(NumericCondition[T]{Op: OpEqual, A: v}) }
func (h NumHandle[T]) Neq(v T)        { h.sink(NumericCondition[T]{Op: OpNotEqual, A: v}) }
func (h NumHandle[T]) Between(a, b T) { h.sink(NumericCondition[T]{Op: OpBetween, A: a, B: b}) }
func (h NumHandle[T]) Outside(a, b T) { h.sink(NumericCondition[T]{Op: OpOutside, A: a, B: b}) }

// BigHandle is the NumHandle equivalent for u128-width fields.
type BigHandle struct{ sink func(BigNumericCondition) }

func (h BigHandle) Gt(v *big.Int)  { h.sink(BigNumericCondition{Op: OpGreaterThan, A: v}) }
func (h BigHandle) Gte(v *big.Int) { h.sink(BigNumericCondition{Op: OpGreaterThanOrEqual, A: v}) }
func (h BigHandle) Lt(v *big.Int)  { h.sink(BigNumericCondition{Op: OpLessThan, A: v}) }
func (h BigHandle) Lte(v *big.Int) { h.sink(BigNumericCondition{Op: OpLessThanOrEqual, A: v}) }
func (h BigHandle) Eq(v *big.Int)  { h.sink(BigNumericCondition{Op: OpEqual, A: v}) }
func (h BigHandle) Neq(v *big.Int) { h.sink(BigNumericCondition{Op: OpNotEqual, A: v}) }
func (h BigHandle) Between(a, b *big.Int) {
	h.sink(BigNumericCondition{Op: OpBetween, A: a, B: b})
}
func (h BigHandle) Outside(a, b *big.Int) {
	h.sink(BigNumericCondition{Op: OpOutside, A: a, B: b})
}

// U256Handle is the NumHandle equivalent for u256-width fields.
type U256Handle struct{ sink func(U256Condition) }

func (h U256Handle) Gt(v *uint256.Int)  { h.sink(U256Condition{Op: OpGreaterThan, A: v}) }
func (h U256Handle) Gte(v *uint256.Int) { h.sink(U256Condition{Op: OpGreaterThanOrEqual, A: v}) }
func (h U256Handle) Lt(v *uint256.Int)  { h.sink(U256Condition{Op: OpLessThan, A: v}) }
func (h U256Handle) Lte(v *uint256.Int) { h.sink(U256Condition{Op: OpLessThanOrEqual, A: v}) }
func (h U256Handle) Eq(v *uint256.Int)  { h.sink(U256Condition{Op: OpEqual, A: v}) }
func (h U256Handle) Neq(v *uint256.Int) { h.sink(U256Condition{Op: OpNotEqual, A: v}) }
func (h U256Handle) Between(a, b *uint256.Int) {
	h.sink(U256Condition{Op: OpBetween, A: a, B: b})
}
func (h U256Handle) Outside(a, b *uint256.Int) {
	h.sink(U256Condition{Op: OpOutside, A: a, B: b})
}

// StringHandle is the fluent comparator surface for string-shaped fields
// (addresses and hashes compared as 0x-prefixed hex).
type StringHandle struct{ sink func(StringCondition) }

func (h StringHandle) Equal(v string)      { h.sink(StringCondition{Op: StringEqual, Value: v}) }
func (h StringHandle) Contains(v string)   { h.sink(StringCondition{Op: StringContains, Value: v}) }
func (h StringHandle) StartsWith(v string) { h.sink(StringCondition{Op: StringStartsWith, Value: v}) }
func (h StringHandle) EndsWith(v string)   { h.sink(StringCondition{Op: StringEndsWith, Value: v}) }

// Matches compiles expr as a regular expression and pushes a StringMatches
// condition. The compile error, if any, is returned rather than panicking:
// a malformed pattern is a caller bug worth surfacing, not a runtime crash.
func (h StringHandle) Matches(expr string) error {
	p, err := CompilePattern(expr)
	if err != nil {
		return err
	}
	h.sink(StringCondition{Op: StringMatches, Pattern: p})
	return nil
}

// ArrayHandle is the fluent comparator surface for slice-shaped fields
// (access lists, topics).
type ArrayHandle[T comparable] struct{ sink func(ArrayCondition[T]) }

func (h ArrayHandle[T]) Contains(v T)     { h.sink(ArrayCondition[T]{Op: ArrayContains, Value: v}) }
func (h ArrayHandle[T]) NotIn(vs ...T)    { h.sink(ArrayCondition[T]{Op: ArrayNotIn, Values: vs}) }
func (h ArrayHandle[T]) Empty()           { h.sink(ArrayCondition[T]{Op: ArrayEmpty}) }
func (h ArrayHandle[T]) NotEmpty()        { h.sink(ArrayCondition[T]{Op: ArrayNotEmpty}) }

// ValueHandle is the fluent comparator surface for a bare width-tagged
// ValueCondition, shared by dyn-field and decoded-event-parameter builders.
type ValueHandle struct{ sink func(ValueCondition) }

func (h ValueHandle) U64() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) {
		h.sink(ValueCondition{Kind: ValueU64, U64: c})
	}}
}

func (h ValueHandle) U128() BigHandle {
	return BigHandle{sink: func(c BigNumericCondition) {
		h.sink(ValueCondition{Kind: ValueU128, U128: c})
	}}
}

func (h ValueHandle) U256() U256Handle {
	return U256Handle{sink: func(c U256Condition) {
		h.sink(ValueCondition{Kind: ValueU256, U256: c})
	}}
}

func (h ValueHandle) String() StringHandle {
	return StringHandle{sink: func(c StringCondition) {
		h.sink(ValueCondition{Kind: ValueString, Str: c})
	}}
}

// DynHandle is the fluent comparator surface for a dotted JSON-path field.
// Width is chosen by which method is called, mirroring the reference
// implementation's literal-suffix dispatch (100u64 vs 100u128 vs 100u256).
type DynHandle struct {
	path string
	sink func(DynFieldCondition)
}

func (h DynHandle) value() ValueHandle {
	return ValueHandle{sink: func(v ValueCondition) {
		h.sink(DynFieldCondition{Path: h.path, Cond: v})
	}}
}

func (h DynHandle) U64() NumHandle[uint64]  { return h.value().U64() }
func (h DynHandle) U128() BigHandle         { return h.value().U128() }
func (h DynHandle) U256() U256Handle        { return h.value().U256() }
func (h DynHandle) String() StringHandle    { return h.value().String() }

// FilterBuilder assembles a Filter from per-domain sub-builders combined
// with logical operators. A bare FilterBuilder AND-combines whatever its
// top-level calls accumulate, the same way the reference implementation's
// top-level builder wraps accumulated nodes in an implicit And before
// optimizing.
type FilterBuilder struct {
	onChain chain.Chain
	kind    *event.Kind
	nodes   []FilterNode
}

// New starts an empty FilterBuilder.
func New() *FilterBuilder {
	return &FilterBuilder{}
}

// Chain restricts the filter to a single chain.
func (b *FilterBuilder) Chain(c chain.Chain) *FilterBuilder {
	b.onChain = c
	return b
}

// OnKind restricts the filter to a single event kind, letting the evaluator
// skip the tree for event shapes it can never match.
func (b *FilterBuilder) OnKind(k event.Kind) *FilterBuilder {
	b.kind = &k
	return b
}

func (b *FilterBuilder) push(n FilterNode) {
	b.nodes = append(b.nodes, n)
}

// Transaction adds a transaction-field predicate group.
func (b *FilterBuilder) Transaction(fn func(*TxBuilder)) *FilterBuilder {
	tb := &TxBuilder{}
	fn(tb)
	b.nodes = append(b.nodes, tb.nodes...)
	return b
}

// Event adds a log-field predicate group.
func (b *FilterBuilder) Event(fn func(*EventBuilder)) *FilterBuilder {
	eb := &EventBuilder{}
	fn(eb)
	b.nodes = append(b.nodes, eb.nodes...)
	return b
}

// Pool adds a pending-transaction-field predicate group.
func (b *FilterBuilder) Pool(fn func(*PoolBuilder)) *FilterBuilder {
	pb := &PoolBuilder{}
	fn(pb)
	b.nodes = append(b.nodes, pb.nodes...)
	return b
}

// BlockHeader adds a block-header-field predicate group.
func (b *FilterBuilder) BlockHeader(fn func(*BlockHeaderBuilder)) *FilterBuilder {
	hb := &BlockHeaderBuilder{}
	fn(hb)
	b.nodes = append(b.nodes, hb.nodes...)
	return b
}

// Optimism adds an OP-stack dyn-field predicate group.
func (b *FilterBuilder) Optimism(fn func(*OptimismBuilder)) *FilterBuilder {
	ob := &OptimismBuilder{}
	fn(ob)
	b.nodes = append(b.nodes, ob.nodes...)
	return b
}

func (b *FilterBuilder) buildLogical(op LogicalOp, fn func(*FilterBuilder)) *FilterBuilder {
	sub := &FilterBuilder{onChain: b.onChain, kind: b.kind}
	fn(sub)
	switch len(sub.nodes) {
	case 0:
		return b
	case 1:
		b.push(sub.nodes[0])
	default:
		b.push(Group(op, sub.nodes...))
	}
	return b
}

func (b *FilterBuilder) And(fn func(*FilterBuilder)) *FilterBuilder    { return b.buildLogical(OpAnd, fn) }
func (b *FilterBuilder) AllOf(fn func(*FilterBuilder)) *FilterBuilder  { return b.buildLogical(OpAnd, fn) }
func (b *FilterBuilder) Or(fn func(*FilterBuilder)) *FilterBuilder     { return b.buildLogical(OpOr, fn) }
func (b *FilterBuilder) AnyOf(fn func(*FilterBuilder)) *FilterBuilder  { return b.buildLogical(OpOr, fn) }
func (b *FilterBuilder) Not(fn func(*FilterBuilder)) *FilterBuilder    { return b.buildLogical(OpNot, fn) }
func (b *FilterBuilder) Unless(fn func(*FilterBuilder)) *FilterBuilder { return b.buildLogical(OpNot, fn) }
func (b *FilterBuilder) Xor(fn func(*FilterBuilder)) *FilterBuilder    { return b.buildLogical(OpXor, fn) }

// Build normalizes, priority-orders, and assigns a Filter ID to the
// accumulated predicate tree.
func (b *FilterBuilder) Build() Filter {
	var root FilterNode
	switch len(b.nodes) {
	case 0:
		root = FilterNode{}
	case 1:
		root = b.nodes[0]
	default:
		root = Group(OpAnd, b.nodes...)
	}
	return newFilter(b.onChain, b.kind, root)
}
