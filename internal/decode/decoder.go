package decode

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Decoder turns raw log/call bytes into named values, given a human-readable
// signature. It is the seam internal/engine calls through so the evaluator
// never depends on go-ethereum's abi package directly.
type Decoder interface {
	DecodeLog(signature string, log gethtypes.Log) (*Decoded, error)
	DecodeCall(signature string, input []byte) (*Decoded, error)
}

// EthDecoder is the default Decoder, backed by go-ethereum's accounts/abi
// package — the same package the geth RPC client itself uses to decode
// contract calls and logs.
type EthDecoder struct{}

func (EthDecoder) DecodeLog(signature string, log gethtypes.Log) (*Decoded, error) {
	name, fields, err := parseSignature(signature)
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(fields))

	var nonIndexed abi.Arguments
	topicPos := 1 // topics[0] is the event selector itself
	for i, f := range fields {
		if f.indexed {
			if topicPos >= len(log.Topics) {
				return nil, fmt.Errorf("decode: log has fewer topics than indexed fields in %q", signature)
			}
			t, terr := abi.NewType(f.typ, "", nil)
			if terr != nil {
				return nil, fmt.Errorf("decode: field %d type %q: %w", i, f.typ, terr)
			}
			values[fieldName(f, i)] = decodeIndexedTopic(t, log.Topics[topicPos])
			topicPos++
			continue
		}
		t, terr := abi.NewType(f.typ, "", nil)
		if terr != nil {
			return nil, fmt.Errorf("decode: field %d type %q: %w", i, f.typ, terr)
		}
		nonIndexed = append(nonIndexed, abi.Argument{Name: fieldName(f, i), Type: t})
	}

	if len(nonIndexed) > 0 {
		unpacked, uerr := nonIndexed.Unpack(log.Data)
		if uerr != nil {
			return nil, fmt.Errorf("decode: unpack log data for %q: %w", signature, uerr)
		}
		for i, arg := range nonIndexed {
			values[arg.Name] = normalizeValue(unpacked[i])
		}
	}

	return &Decoded{Method: name, Values: values}, nil
}

func (EthDecoder) DecodeCall(signature string, input []byte) (*Decoded, error) {
	name, fields, err := parseSignature(signature)
	if err != nil {
		return nil, err
	}
	if len(input) < 4 {
		return nil, fmt.Errorf("decode: call input shorter than a selector")
	}
	args, err := toArguments(fields)
	if err != nil {
		return nil, err
	}
	unpacked, err := args.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("decode: unpack call params for %q: %w", signature, err)
	}
	values := make(map[string]any, len(args))
	for i, a := range args {
		values[a.Name] = normalizeValue(unpacked[i])
	}
	return &Decoded{Method: name, Values: values}, nil
}

func fieldName(f field, i int) string {
	if f.name != "" {
		return f.name
	}
	return fmt.Sprintf("arg%d", i)
}

// decodeIndexedTopic recovers an indexed event parameter from its topic.
// Fixed-width types are recovered exactly; dynamic types (string, bytes,
// arrays) are only present as their Keccak-256 hash per the EVM's own log
// encoding, so the raw topic hex is returned for equality-style comparisons.
func decodeIndexedTopic(t abi.Type, topic common.Hash) any {
	switch t.T {
	case abi.AddressTy:
		return common.BytesToAddress(topic.Bytes()).Hex()
	case abi.BoolTy:
		return topic.Big().Sign() != 0
	case abi.IntTy, abi.UintTy:
		return new(big.Int).Set(topic.Big())
	case abi.FixedBytesTy, abi.HashTy:
		return topic.Hex()
	default:
		return topic.Hex()
	}
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case common.Address:
		return x.Hex()
	case [32]byte:
		return common.Hash(x).Hex()
	default:
		return v
	}
}
