package filter

// EventBuilder accumulates log-field predicates for FilterBuilder.Event.
type EventBuilder struct {
	nodes []FilterNode
}

func (b *EventBuilder) push(c EventCondition) {
	b.nodes = append(b.nodes, Leaf(FilterCondition{Domain: DomainEvent, Event: c}))
}

func (b *EventBuilder) Contract() StringHandle {
	return StringHandle{sink: func(c StringCondition) { b.push(EventCondition{Kind: EventContract, Str: c}) }}
}

func (b *EventBuilder) BlockHash() StringHandle {
	return StringHandle{sink: func(c StringCondition) { b.push(EventCondition{Kind: EventBlockHash, Str: c}) }}
}

func (b *EventBuilder) TxHash() StringHandle {
	return StringHandle{sink: func(c StringCondition) { b.push(EventCondition{Kind: EventTxHash, Str: c}) }}
}

func (b *EventBuilder) LogIndex() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) { b.push(EventCondition{Kind: EventLogIndex, U64: c}) }}
}

func (b *EventBuilder) BlockNumber() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) {
		b.push(EventCondition{Kind: EventBlockNumber, U64: c})
	}}
}

func (b *EventBuilder) TxIndex() NumHandle[uint64] {
	return NumHandle[uint64]{sink: func(c NumericCondition[uint64]) { b.push(EventCondition{Kind: EventTxIndex, U64: c}) }}
}

func (b *EventBuilder) Topics() ArrayHandle[string] {
	return ArrayHandle[string]{sink: func(c ArrayCondition[string]) { b.push(EventCondition{Kind: EventTopics, Arr: c}) }}
}

func (b *EventBuilder) Field(path string) DynHandle {
	return DynHandle{path: path, sink: func(c DynFieldCondition) { b.push(EventCondition{Kind: EventDynField, Dyn: c}) }}
}

// EventParamBuilder accumulates named decoded-parameter predicates for a
// single EventData condition.
type EventParamBuilder struct {
	params []NamedValueCondition
}

// Param matches a named parameter from the ABI-decoded log. All params
// added via a single EventData call must match (logical AND).
func (pb *EventParamBuilder) Param(name string) ValueHandle {
	return ValueHandle{sink: func(v ValueCondition) {
		pb.params = append(pb.params, NamedValueCondition{Param: name, Cond: v})
	}}
}

// EventData matches a log against an ABI event signature (e.g.
// "Transfer(address,address,uint256)") and its decoded parameters. Requires
// a successful decode; see internal/decode.
func (b *EventBuilder) EventData(signature string, fn func(*EventParamBuilder)) {
	pb := &EventParamBuilder{}
	fn(pb)
	b.push(EventCondition{
		Kind:  EventData,
		Event: EventDataCondition{Signature: signature, Parameters: pb.params},
	})
}
