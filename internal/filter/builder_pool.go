package filter

// PoolBuilder accumulates pending-transaction-field predicates for
// FilterBuilder.Pool.
type PoolBuilder struct {
	nodes []FilterNode
}

func (b *PoolBuilder) push(c PoolCondition) {
	b.nodes = append(b.nodes, Leaf(FilterCondition{Domain: DomainPool, Pool: c}))
}

func (b *PoolBuilder) Hash() StringHandle {
	return StringHandle{sink: func(c StringCondition) { b.push(PoolCondition{Kind: PoolHash, Str: c}) }}
}

func (b *PoolBuilder) To() StringHandle {
	return StringHandle{sink: func(c StringCondition) { b.push(PoolCondition{Kind: PoolTo, Str: c}) }}
}

func (b *PoolBuilder) From() StringHandle {
	return StringHandle{sink: func(c StringCondition) { b.push(PoolCondition{Kind: PoolFrom, Str: c}) }}
}

func (b *PoolBuilder) Value() U256Handle {
	return U256Handle{sink: func(c U256Condition) { b.push(PoolCondition{Kind: PoolValue, U256: c}) }}
}

func (b *PoolBuilder) Nonce() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) { b.push(PoolCondition{Kind: PoolNonce, U64: c}) }}
}

func (b *PoolBuilder) GasPrice() BigHandle {
	return BigHandle{sink: func(c BigNumericCondition) { b.push(PoolCondition{Kind: PoolGasPrice, U128: c}) }}
}

func (b *PoolBuilder) GasLimit() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) { b.push(PoolCondition{Kind: PoolGasLimit, U64: c}) }}
}
