package decode

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// field is one parsed parameter from a human-readable signature, e.g. the
// "address indexed from" in "Transfer(address indexed from, address to)".
type field struct {
	typ     string
	name    string
	indexed bool
}

// parseSignature splits a human-readable method/event signature
// ("Transfer(address indexed from, address to, uint256 value)") into its
// name and ordered fields. Unlike a full Solidity ABI JSON, this accepts a
// bare signature string so filter builders can name an event or method
// without carrying its whole ABI around.
func parseSignature(sig string) (name string, fields []field, err error) {
	open := strings.IndexByte(sig, '(')
	if open < 0 || !strings.HasSuffix(sig, ")") {
		return "", nil, fmt.Errorf("decode: malformed signature %q", sig)
	}
	name = strings.TrimSpace(sig[:open])
	body := strings.TrimSpace(sig[open+1 : len(sig)-1])
	if body == "" {
		return name, nil, nil
	}
	for _, part := range strings.Split(body, ",") {
		tokens := strings.Fields(strings.TrimSpace(part))
		if len(tokens) == 0 {
			continue
		}
		f := field{typ: tokens[0]}
		rest := tokens[1:]
		for _, t := range rest {
			if t == "indexed" {
				f.indexed = true
				continue
			}
			f.name = t
		}
		fields = append(fields, f)
	}
	return name, fields, nil
}

// toArguments converts parsed fields to abi.Arguments, dropping the
// indexed flag (abi.Arguments only needs it for event topic/data split,
// handled separately by the caller).
func toArguments(fields []field) (abi.Arguments, error) {
	args := make(abi.Arguments, 0, len(fields))
	for i, f := range fields {
		t, err := abi.NewType(f.typ, "", nil)
		if err != nil {
			return nil, fmt.Errorf("decode: field %d type %q: %w", i, f.typ, err)
		}
		fieldName := f.name
		if fieldName == "" {
			fieldName = fmt.Sprintf("arg%d", i)
		}
		args = append(args, abi.Argument{Name: fieldName, Type: t, Indexed: f.indexed})
	}
	return args, nil
}
