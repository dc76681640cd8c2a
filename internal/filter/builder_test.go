package filter

import (
	"testing"

	"github.com/rawblock/sieve/pkg/chain"
	"github.com/rawblock/sieve/pkg/event"
)

func TestBuilder_TopLevelCallsImplicitlyAnd(t *testing.T) {
	f := New().Chain(chain.Ethereum).Transaction(func(tb *TxBuilder) {
		tb.Nonce().Gte(1)
		tb.Gas().Lte(100_000)
	}).Build()

	if f.Root.Op != OpAnd {
		t.Fatalf("expected two top-level predicates to combine under an implicit And, got %+v", f.Root)
	}
	if len(f.Root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(f.Root.Children))
	}
}

func TestBuilder_SingleTopLevelCallCollapsesToLeaf(t *testing.T) {
	f := New().Chain(chain.Ethereum).Transaction(func(tb *TxBuilder) {
		tb.Nonce().Gte(1)
	}).Build()

	if f.Root.Leaf == nil {
		t.Fatalf("expected a single predicate to collapse directly to a leaf, got %+v", f.Root)
	}
}

func TestBuilder_OrGroupsItsSubBuilderNodes(t *testing.T) {
	f := New().Chain(chain.Ethereum).Or(func(sub *FilterBuilder) {
		sub.Transaction(func(tb *TxBuilder) { tb.Nonce().Eq(1) })
		sub.Transaction(func(tb *TxBuilder) { tb.Gas().Eq(2) })
	}).Build()

	if f.Root.Op != OpOr {
		t.Fatalf("expected Or to produce an OpOr root, got %+v", f.Root)
	}
	if len(f.Root.Children) != 2 {
		t.Fatalf("expected 2 children under Or, got %d", len(f.Root.Children))
	}
}

func TestBuilder_NotWrapsAllChildrenUnderNand(t *testing.T) {
	f := New().Chain(chain.Ethereum).Not(func(sub *FilterBuilder) {
		sub.Transaction(func(tb *TxBuilder) { tb.Nonce().Eq(1) })
		sub.Transaction(func(tb *TxBuilder) { tb.Gas().Eq(2) })
	}).Build()

	if f.Root.Op != OpNot {
		t.Fatalf("expected Not to produce an OpNot root, got %+v", f.Root)
	}
}

func TestBuilder_EmptySubBuilderContributesNothing(t *testing.T) {
	f := New().Chain(chain.Ethereum).Or(func(sub *FilterBuilder) {}).
		Transaction(func(tb *TxBuilder) { tb.Nonce().Eq(1) }).Build()

	if f.Root.Leaf == nil {
		t.Fatalf("expected the empty Or group to drop out, leaving a bare leaf, got %+v", f.Root)
	}
}

func TestBuilder_OnKindSetsEventKind(t *testing.T) {
	f := New().Chain(chain.Ethereum).OnKind(event.KindTransaction).Transaction(func(tb *TxBuilder) {
		tb.Nonce().Eq(1)
	}).Build()

	if f.EventKind == nil || *f.EventKind != event.KindTransaction {
		t.Fatalf("expected EventKind to be set to KindTransaction, got %+v", f.EventKind)
	}
}

func TestBuilder_BuildAssignsDistinctIncreasingIDs(t *testing.T) {
	f1 := New().Chain(chain.Ethereum).Transaction(func(tb *TxBuilder) { tb.Nonce().Eq(1) }).Build()
	f2 := New().Chain(chain.Ethereum).Transaction(func(tb *TxBuilder) { tb.Nonce().Eq(2) }).Build()

	if f1.ID == f2.ID {
		t.Fatalf("expected distinct filter IDs, got %d and %d", f1.ID, f2.ID)
	}
	if f2.ID <= f1.ID {
		t.Fatalf("expected filter IDs to increase monotonically, got %d then %d", f1.ID, f2.ID)
	}
}

func TestSelector_IsDeterministicAndSignatureDependent(t *testing.T) {
	transfer := Selector("transfer(address,uint256)")
	approve := Selector("approve(address,uint256)")
	transferAgain := Selector("transfer(address,uint256)")

	if transfer != transferAgain {
		t.Fatalf("expected the same signature to derive the same selector")
	}
	if transfer == approve {
		t.Fatalf("expected different signatures to derive different selectors")
	}
	// Well-known selector for ERC-20 transfer(address,uint256).
	want := [4]byte{0xa9, 0x05, 0x9c, 0xbb}
	if transfer != want {
		t.Fatalf("expected transfer(address,uint256) selector %x, got %x", want, transfer)
	}
}

func TestStringHandle_MatchesRejectsInvalidRegex(t *testing.T) {
	tb := &TxBuilder{}
	if err := tb.From().Matches("("); err == nil {
		t.Fatalf("expected an unbalanced regex to fail compilation")
	}
}
