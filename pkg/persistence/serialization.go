package persistence

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
)

// nonceConsumed is the stored value of a consumed nonce record
var nonceConsumed = []byte{1}

// MarshalTokenDescriptor serializes a TokenDescriptor to JSON bytes.
func MarshalTokenDescriptor(td *types.TokenDescriptor) ([]byte, error) {
	if td == nil {
		return nil, fmt.Errorf("cannot marshal nil TokenDescriptor")
	}

	data, err := json.Marshal(td)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TokenDescriptor to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalTokenDescriptor deserializes a TokenDescriptor from JSON bytes.
func UnmarshalTokenDescriptor(data []byte) (*types.TokenDescriptor, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var td types.TokenDescriptor
	if err := json.Unmarshal(data, &td); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to TokenDescriptor: %w", err)
	}

	return &td, nil
}

// MarshalAmount encodes a non-negative integer as base-10 text.
func MarshalAmount(v *big.Int) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot marshal nil amount")
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("cannot marshal negative amount %s", v)
	}
	return []byte(v.String()), nil
}

// UnmarshalAmount decodes base-10 text written by MarshalAmount.
func UnmarshalAmount(data []byte) (*big.Int, error) {
	v, ok := new(big.Int).SetString(string(data), 10)
	if !ok {
		return nil, fmt.Errorf("invalid stored amount %q", string(data))
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("stored amount %s is negative", v)
	}
	return v, nil
}
