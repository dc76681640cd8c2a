package filter

// BlockHeaderBuilder accumulates block-header-field predicates for
// FilterBuilder.BlockHeader.
type BlockHeaderBuilder struct {
	nodes []FilterNode
}

func (b *BlockHeaderBuilder) push(c BlockHeaderCondition) {
	b.nodes = append(b.nodes, Leaf(FilterCondition{Domain: DomainBlockHeader, Block: c}))
}

func (b *BlockHeaderBuilder) BaseFee() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) { b.push(BlockHeaderCondition{Kind: BlockBaseFee, U64: c}) }}
}

func (b *BlockHeaderBuilder) Number() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) {
		b.push(BlockHeaderCondition{Kind: BlockNumberKind, U64: c})
	}}
}

func (b *BlockHeaderBuilder) Timestamp() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) {
		b.push(BlockHeaderCondition{Kind: BlockTimestamp, U64: c})
	}}
}

func (b *BlockHeaderBuilder) GasUsed() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) { b.push(BlockHeaderCondition{Kind: BlockGasUsed, U64: c}) }}
}

func (b *BlockHeaderBuilder) GasLimit() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) {
		b.push(BlockHeaderCondition{Kind: BlockGasLimit, U64: c})
	}}
}

func (b *BlockHeaderBuilder) ParentHash() StringHandle {
	return StringHandle{sink: func(c StringCondition) { b.push(BlockHeaderCondition{Kind: BlockParentHash, Str: c}) }}
}

func (b *BlockHeaderBuilder) StateRoot() StringHandle {
	return StringHandle{sink: func(c StringCondition) { b.push(BlockHeaderCondition{Kind: BlockStateRoot, Str: c}) }}
}

func (b *BlockHeaderBuilder) ReceiptsRoot() StringHandle {
	return StringHandle{sink: func(c StringCondition) {
		b.push(BlockHeaderCondition{Kind: BlockReceiptsRoot, Str: c})
	}}
}

func (b *BlockHeaderBuilder) TransactionsRoot() StringHandle {
	return StringHandle{sink: func(c StringCondition) {
		b.push(BlockHeaderCondition{Kind: BlockTransactionsRoot, Str: c})
	}}
}

func (b *BlockHeaderBuilder) Field(path string) DynHandle {
	return DynHandle{path: path, sink: func(c DynFieldCondition) {
		b.push(BlockHeaderCondition{Kind: BlockDynField, Dyn: c})
	}}
}
