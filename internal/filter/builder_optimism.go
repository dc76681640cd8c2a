package filter

// OptimismBuilder accumulates OP-stack-specific dyn-field predicates for
// FilterBuilder.Optimism. These fields (L1 origin metadata attached to an
// L2 transaction, its position in the submitted batch) have no first-class
// accessor on TxBuilder because they only exist on Optimism-family chains;
// they are resolved the same dotted-JSON-path way as TxBuilder.Field, with
// named convenience wrappers for the ones the reference examples use.
type OptimismBuilder struct {
	nodes []FilterNode
}

func (b *OptimismBuilder) push(c DynFieldCondition) {
	b.nodes = append(b.nodes, Leaf(FilterCondition{
		Domain: DomainTransaction,
		Tx:     TransactionCondition{Kind: TxDynField, Dyn: c},
	}))
}

// Field matches an arbitrary dotted JSON path against the L2 transaction's
// generic projection (e.g. "batch.index").
func (b *OptimismBuilder) Field(path string) DynHandle {
	return DynHandle{path: path, sink: b.push}
}

func (b *OptimismBuilder) L1BlockNumber() NumHandle[uint64]  { return b.Field("l1BlockNumber").U64() }
func (b *OptimismBuilder) L1TxOrigin() StringHandle          { return b.Field("l1TxOrigin").String() }
func (b *OptimismBuilder) QueueIndex() NumHandle[uint64]     { return b.Field("queueIndex").U64() }
func (b *OptimismBuilder) SequenceNumber() NumHandle[uint64] { return b.Field("sequenceNumber").U64() }
func (b *OptimismBuilder) PrevTotalElements() NumHandle[uint64] {
	return b.Field("prevTotalElements").U64()
}
