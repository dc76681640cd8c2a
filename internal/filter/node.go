package filter

// ValueKind tags which width a DynFieldCondition's comparator operates on.
type ValueKind int

const (
	ValueU64 ValueKind = iota
	ValueU128
	ValueU256
	ValueString
)

// ValueCondition is a width-tagged comparator used for dynamic (JSON-path)
// fields and for decoded event-log parameters, both of which only learn
// their concrete type at filter-construction time rather than compile time.
type ValueCondition struct {
	Kind ValueKind
	U64  NumericCondition[uint64]
	U128 BigNumericCondition
	U256 U256Condition
	Str  StringCondition
}

// DynFieldCondition matches a dotted JSON path (e.g. "l1BlockNumber" or
// "batch.index") against a value, resolved from the event's JSON projection.
type DynFieldCondition struct {
	Path string
	Cond ValueCondition
}

// NamedValueCondition pairs a decoded event-log parameter name with the
// comparator it must satisfy; EventDataCondition requires all pairs to match.
type NamedValueCondition struct {
	Param string
	Cond  ValueCondition
}

// EventDataCondition decodes a log against an ABI event signature and
// compares its named parameters. Requires a decode (see internal/decode),
// so it is always Priority Complex.
type EventDataCondition struct {
	Signature  string
	Parameters []NamedValueCondition
}

// CallDataCondition decodes a transaction's input against an ABI method
// selector and compares its positional/named parameters, plus any raw byte
// paths into the undecoded input. Requires a decode, so always Complex.
type CallDataCondition struct {
	MethodSignature string
	Selector        [4]byte
	Paths           []DynFieldCondition
	Parameters      []DynFieldCondition
}

// TxKind enumerates the transaction fields a TransactionCondition can test.
type TxKind int

const (
	TxGas TxKind = iota
	TxNonce
	TxType
	TxChainID
	TxBlockNumber
	TxTransactionIndex
	TxValue
	TxGasPrice
	TxMaxFeePerGas
	TxMaxPriorityFee
	TxFrom
	TxTo
	TxHash
	TxBlockHash
	TxAccessList
	TxCallData
	TxDynField
)

// TransactionCondition predicates over a single transaction field. Exactly
// the payload field matching Kind is populated; the evaluator never reads
// the others.
type TransactionCondition struct {
	Kind     TxKind
	U64      NumericCondition[uint64]
	U8       NumericCondition[uint8]
	U128     BigNumericCondition
	U256     U256Condition
	Str      StringCondition
	Arr      ArrayCondition[string]
	CallData CallDataCondition
	Dyn      DynFieldCondition
}

// EventKind enumerates the log fields an EventCondition can test.
type EventKind int

const (
	EventContract EventKind = iota
	EventBlockHash
	EventTxHash
	EventLogIndex
	EventBlockNumber
	EventTxIndex
	EventData
	EventTopics
	EventDynField
)

// EventCondition predicates over a single log field.
type EventCondition struct {
	Kind  EventKind
	U64   NumericCondition[uint64]
	Str   StringCondition
	Arr   ArrayCondition[string]
	Event EventDataCondition
	Dyn   DynFieldCondition
}

// PoolKind enumerates the pending-transaction fields a PoolCondition can test.
type PoolKind int

const (
	PoolHash PoolKind = iota
	PoolTo
	PoolFrom
	PoolValue
	PoolNonce
	PoolGasPrice
	PoolGasLimit
)

// PoolCondition predicates over a single pending mempool transaction field.
type PoolCondition struct {
	Kind PoolKind
	U64  NumericCondition[uint64]
	U128 BigNumericCondition
	U256 U256Condition
	Str  StringCondition
}

// BlockHeaderKind enumerates the block header fields a BlockHeaderCondition
// can test.
type BlockHeaderKind int

const (
	BlockBaseFee BlockHeaderKind = iota
	BlockNumberKind
	BlockTimestamp
	BlockGasUsed
	BlockGasLimit
	BlockParentHash
	BlockStateRoot
	BlockReceiptsRoot
	BlockTransactionsRoot
	BlockDynField
)

// BlockHeaderCondition predicates over a single block header field.
type BlockHeaderCondition struct {
	Kind BlockHeaderKind
	U64  NumericCondition[uint64]
	Str  StringCondition
	Dyn  DynFieldCondition
}

// ConditionDomain tags which of the four event shapes a FilterCondition
// binds to.
type ConditionDomain int

const (
	DomainTransaction ConditionDomain = iota
	DomainEvent
	DomainPool
	DomainBlockHeader
)

// FilterCondition is a leaf predicate bound to one domain. It is the Value
// payload of a leaf FilterNode.
type FilterCondition struct {
	Domain ConditionDomain
	Tx     TransactionCondition
	Event  EventCondition
	Pool   PoolCondition
	Block  BlockHeaderCondition
}

// LogicalOp combines child FilterNodes. Not is N-ary NAND (true unless every
// child matches), not plain negation, so Not over more than one child means
// "not all of these" rather than "none of these" — Xor covers "exactly one".
type LogicalOp int

const (
	OpAnd LogicalOp = iota
	OpOr
	OpNot
	OpXor
)

// FilterNode is either a leaf (Leaf != nil) or a logical group over
// Children. A node with Leaf == nil and no Children is the empty node,
// dropped by Normalize.
type FilterNode struct {
	Leaf     *FilterCondition
	Op       LogicalOp
	Children []FilterNode
}

// Leaf wraps a single condition as a FilterNode.
func Leaf(c FilterCondition) FilterNode {
	return FilterNode{Leaf: &c}
}

// Group wraps children under a logical operator.
func Group(op LogicalOp, children ...FilterNode) FilterNode {
	return FilterNode{Op: op, Children: children}
}

func (n FilterNode) isEmpty() bool {
	return n.Leaf == nil && len(n.Children) == 0
}

// Normalize recursively drops empty nodes and collapses single-child groups,
// post-order, so the result is a minimal tree with the same semantics. It is
// idempotent: Normalize(Normalize(n)) == Normalize(n).
func Normalize(n FilterNode) FilterNode {
	if n.Leaf != nil {
		return n
	}
	kept := make([]FilterNode, 0, len(n.Children))
	for _, c := range n.Children {
		nc := Normalize(c)
		if !nc.isEmpty() {
			kept = append(kept, nc)
		}
	}
	switch len(kept) {
	case 0:
		return FilterNode{}
	case 1:
		return kept[0]
	default:
		return FilterNode{Op: n.Op, Children: kept}
	}
}

// priorityOf returns a node's priority for sort purposes: a leaf's own
// priority, or the worst (highest) priority among a group's children, since
// a group can't be known cheap until everything inside it is.
func priorityOf(n FilterNode) Priority {
	if n.Leaf != nil {
		return n.Leaf.Priority()
	}
	worst := PriorityBasic
	for _, c := range n.Children {
		if p := priorityOf(c); p > worst {
			worst = p
		}
	}
	return worst
}

// Reorder sorts And/Or children by ascending priority so evaluation tries
// cheap comparisons first, recursively. Not and Xor children are left in
// declaration order.
func Reorder(n FilterNode) FilterNode {
	if n.Leaf != nil {
		return n
	}
	children := make([]FilterNode, len(n.Children))
	for i, c := range n.Children {
		children[i] = Reorder(c)
	}
	if n.Op == OpAnd || n.Op == OpOr {
		sortByPriority(children)
	}
	return FilterNode{Op: n.Op, Children: children}
}

func sortByPriority(nodes []FilterNode) {
	// insertion sort: typical filter fan-out is small (a handful of
	// children), and stability matters more than asymptotic complexity here.
	for i := 1; i < len(nodes); i++ {
		j := i
		for j > 0 && priorityOf(nodes[j-1]) > priorityOf(nodes[j]) {
			nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
			j--
		}
	}
}

// Prepare normalizes and priority-reorders a node; this is what Filter
// construction runs once so the evaluator never has to redo it per event.
func Prepare(n FilterNode) FilterNode {
	return Reorder(Normalize(n))
}
