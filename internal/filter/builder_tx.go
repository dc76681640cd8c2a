package filter

import "github.com/ethereum/go-ethereum/crypto"

// TxBuilder accumulates transaction-field predicates for FilterBuilder.Transaction.
type TxBuilder struct {
	nodes []FilterNode
}

func (b *TxBuilder) push(c TransactionCondition) {
	b.nodes = append(b.nodes, Leaf(FilterCondition{Domain: DomainTransaction, Tx: c}))
}

func (b *TxBuilder) Gas() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) { b.push(TransactionCondition{Kind: TxGas, U64: c}) }}
}

func (b *TxBuilder) Nonce() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) { b.push(TransactionCondition{Kind: TxNonce, U64: c}) }}
}

func (b *TxBuilder) Type() NumHandle[uint8] {
	return NumHandle[uint8]{sink: func(c NumericCondition[uint8]) { b.push(TransactionCondition{Kind: TxType, U8: c}) }}
}

func (b *TxBuilder) ChainID() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) { b.push(TransactionCondition{Kind: TxChainID, U64: c}) }}
}

func (b *TxBuilder) BlockNumber() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) { b.push(TransactionCondition{Kind: TxBlockNumber, U64: c}) }}
}

func (b *TxBuilder) TransactionIndex() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) {
		b.push(TransactionCondition{Kind: TxTransactionIndex, U64: c})
	}}
}

func (b *TxBuilder) Value() U256Handle {
	return U256Handle{sink: func(c U256Condition) { b.push(TransactionCondition{Kind: TxValue, U256: c}) }}
}

func (b *TxBuilder) GasPrice() BigHandle {
	return BigHandle{sink: func(c BigNumericCondition) { b.push(TransactionCondition{Kind: TxGasPrice, U128: c}) }}
}

func (b *TxBuilder) MaxFeePerGas() BigHandle {
	return BigHandle{sink: func(c BigNumericCondition) { b.push(TransactionCondition{Kind: TxMaxFeePerGas, U128: c}) }}
}

func (b *TxBuilder) MaxPriorityFee() BigHandle {
	return BigHandle{sink: func(c BigNumericCondition) { b.push(TransactionCondition{Kind: TxMaxPriorityFee, U128: c}) }}
}

func (b *TxBuilder) From() StringHandle {
	return StringHandle{sink: func(c StringCondition) { b.push(TransactionCondition{Kind: TxFrom, Str: c}) }}
}

func (b *TxBuilder) To() StringHandle {
	return StringHandle{sink: func(c StringCondition) { b.push(TransactionCondition{Kind: TxTo, Str: c}) }}
}

func (b *TxBuilder) Hash() StringHandle {
	return StringHandle{sink: func(c StringCondition) { b.push(TransactionCondition{Kind: TxHash, Str: c}) }}
}

func (b *TxBuilder) BlockHash() StringHandle {
	return StringHandle{sink: func(c StringCondition) { b.push(TransactionCondition{Kind: TxBlockHash, Str: c}) }}
}

func (b *TxBuilder) AccessList() ArrayHandle[string] {
	return ArrayHandle[string]{sink: func(c ArrayCondition[string]) {
		b.push(TransactionCondition{Kind: TxAccessList, Arr: c})
	}}
}

// Field matches a dotted JSON path against the transaction's generic
// projection (e.g. a field an RPC node attaches that sieve has no named
// accessor for).
func (b *TxBuilder) Field(path string) DynHandle {
	return DynHandle{path: path, sink: func(c DynFieldCondition) {
		b.push(TransactionCondition{Kind: TxDynField, Dyn: c})
	}}
}

// CallDataBuilder accumulates the raw-path and ABI-parameter predicates for
// a single CallData condition.
type CallDataBuilder struct {
	paths      []DynFieldCondition
	parameters []DynFieldCondition
}

// Path matches a dotted path into the undecoded call input (e.g. a raw byte
// slice rendered as hex at a known offset).
func (cb *CallDataBuilder) Path(path string) DynHandle {
	return DynHandle{path: path, sink: func(c DynFieldCondition) { cb.paths = append(cb.paths, c) }}
}

// Param matches a named parameter from the ABI-decoded call input. Requires
// a successful decode (see internal/decode), and so only applies once the
// method selector has matched.
func (cb *CallDataBuilder) Param(name string) DynHandle {
	return DynHandle{path: name, sink: func(c DynFieldCondition) { cb.parameters = append(cb.parameters, c) }}
}

// CallData matches a transaction's 4-byte method selector and, once decoded,
// its ABI parameters. methodSignature is the Solidity-style signature (e.g.
// "transfer(address,uint256)") used to derive the selector the same way the
// EVM itself does: the first 4 bytes of its Keccak-256 hash.
func (b *TxBuilder) CallData(methodSignature string, fn func(*CallDataBuilder)) {
	cb := &CallDataBuilder{}
	fn(cb)
	b.push(TransactionCondition{
		Kind: TxCallData,
		CallData: CallDataCondition{
			MethodSignature: methodSignature,
			Selector:        Selector(methodSignature),
			Paths:           cb.paths,
			Parameters:      cb.parameters,
		},
	})
}

// Selector derives a 4-byte ABI method selector from its Solidity-style
// signature.
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}
