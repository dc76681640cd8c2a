package decode

import (
	"errors"
	"testing"
)

func TestCache_GetOrDecodeCallsDecodeOnceForSameKey(t *testing.T) {
	c, err := NewCache(16)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	key := Key{EventIdentity: "0xabc", Shape: "log:Transfer(address,address,uint256)"}
	calls := 0
	decodeFn := func() (*Decoded, error) {
		calls++
		return &Decoded{Method: "Transfer", Values: map[string]any{"value": calls}}, nil
	}

	first, err := c.GetOrDecode(key, decodeFn)
	if err != nil {
		t.Fatalf("GetOrDecode: %v", err)
	}
	second, err := c.GetOrDecode(key, decodeFn)
	if err != nil {
		t.Fatalf("GetOrDecode: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected decode to run once, ran %d times", calls)
	}
	if first != second {
		t.Fatalf("expected the same *Decoded pointer from the cache on both calls")
	}
}

func TestCache_GetOrDecodePropagatesDecodeError(t *testing.T) {
	c, err := NewCache(16)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	wantErr := errors.New("malformed input")
	_, err = c.GetOrDecode(Key{EventIdentity: "0xdead", Shape: "call:transfer(address,uint256)"}, func() (*Decoded, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the decode error to propagate, got %v", err)
	}
}

func TestCache_GetOrDecodeCachesFailureWithoutRetrying(t *testing.T) {
	c, err := NewCache(16)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	wantErr := errors.New("malformed input")
	key := Key{EventIdentity: "0xdead", Shape: "call:transfer(address,uint256)"}
	calls := 0
	decodeFn := func() (*Decoded, error) {
		calls++
		return nil, wantErr
	}

	_, err = c.GetOrDecode(key, decodeFn)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the decode error on the first call, got %v", err)
	}
	_, err = c.GetOrDecode(key, decodeFn)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the cached decode error on the second call, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected an undecodable key to be remembered rather than retried, decode ran %d times", calls)
	}
}

func TestBatchCache_ResetDiscardsEntries(t *testing.T) {
	c := NewBatchCache()
	key := Key{EventIdentity: "0x1", Shape: "log:Transfer(address,address,uint256)"}
	calls := 0
	decodeFn := func() (*Decoded, error) {
		calls++
		return &Decoded{Method: "Transfer"}, nil
	}

	if _, err := c.GetOrDecode(key, decodeFn); err != nil {
		t.Fatalf("GetOrDecode: %v", err)
	}
	if _, err := c.GetOrDecode(key, decodeFn); err != nil {
		t.Fatalf("GetOrDecode: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one decode before Reset, got %d", calls)
	}

	c.Reset()
	if _, err := c.GetOrDecode(key, decodeFn); err != nil {
		t.Fatalf("GetOrDecode: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected Reset to force a fresh decode, got %d total calls", calls)
	}
}

func TestBatchCache_GetOrDecodeCachesFailureWithoutRetrying(t *testing.T) {
	c := NewBatchCache()
	wantErr := errors.New("malformed input")
	key := Key{EventIdentity: "0x2", Shape: "call:transfer(address,uint256)"}
	calls := 0
	decodeFn := func() (*Decoded, error) {
		calls++
		return nil, wantErr
	}

	_, err := c.GetOrDecode(key, decodeFn)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the decode error on the first call, got %v", err)
	}
	_, err = c.GetOrDecode(key, decodeFn)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the cached decode error on the second call, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected an undecodable key to be remembered rather than retried, decode ran %d times", calls)
	}
}
