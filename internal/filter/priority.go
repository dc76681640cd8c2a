package filter

// Priority classifies how expensive a condition is to evaluate, cheapest
// first. Filter construction (Prepare) sorts And/Or children by priority
// so the evaluator's short-circuiting fails fast on cheap comparisons before paying for
// hash/array/complex ones. Sorting is stable and pure: since And and Or are
// commutative over booleans, reordering never changes the result, only how
// quickly it is reached.
type Priority int

const (
	PriorityBasic Priority = iota
	PriorityHash
	PriorityArray
	PriorityComplex
)

func (c TransactionCondition) Priority() Priority {
	switch c.Kind {
	case TxGas, TxNonce, TxType, TxChainID, TxBlockNumber, TxTransactionIndex, TxDynField, TxGasPrice, TxMaxFeePerGas, TxMaxPriorityFee:
		return PriorityBasic
	case TxFrom, TxTo, TxHash, TxBlockHash:
		return PriorityHash
	case TxAccessList:
		return PriorityArray
	case TxValue, TxCallData:
		return PriorityComplex
	default:
		return PriorityComplex
	}
}

func (c EventCondition) Priority() Priority {
	switch c.Kind {
	case EventLogIndex, EventBlockNumber, EventTxIndex, EventDynField:
		return PriorityBasic
	case EventContract, EventBlockHash, EventTxHash:
		return PriorityHash
	case EventTopics:
		return PriorityArray
	case EventData:
		return PriorityComplex
	default:
		return PriorityComplex
	}
}

func (c PoolCondition) Priority() Priority {
	switch c.Kind {
	case PoolNonce, PoolGasPrice, PoolGasLimit:
		return PriorityBasic
	case PoolHash, PoolTo, PoolFrom:
		return PriorityHash
	case PoolValue:
		return PriorityComplex
	default:
		return PriorityComplex
	}
}

func (c BlockHeaderCondition) Priority() Priority {
	switch c.Kind {
	case BlockBaseFee, BlockNumberKind, BlockTimestamp, BlockGasUsed, BlockGasLimit, BlockDynField:
		return PriorityBasic
	case BlockParentHash, BlockStateRoot, BlockReceiptsRoot, BlockTransactionsRoot:
		return PriorityHash
	default:
		return PriorityBasic
	}
}

func (c FilterCondition) Priority() Priority {
	switch c.Domain {
	case DomainTransaction:
		return c.Tx.Priority()
	case DomainEvent:
		return c.Event.Priority()
	case DomainPool:
		return c.Pool.Priority()
	case DomainBlockHeader:
		return c.Block.Priority()
	default:
		return PriorityComplex
	}
}
