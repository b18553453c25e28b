package messageCodec

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/Layr-Labs/gasless-relay-go/pkg/relayErrors"
	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

/*
Canonical intent encoding

An intent is encoded exactly like Solidity's

	abi.encode(address signer, uint256 tokenId, uint256 amount, address recipient, uint256 nonce)

Every field occupies one 32 byte big-endian word in a fixed position, so the encoding is
injective and any EVM tooling (ethers, web3, solidity) reproduces it byte for byte.
The signed digest is keccak256 of those 160 bytes.
*/

// EncodedIntentLength is the size of an encoded intent: five ABI words.
const EncodedIntentLength = 5 * 32

var intentArguments abi.Arguments

func init() {
	addressType, _ := abi.NewType("address", "", nil)
	uint256Type, _ := abi.NewType("uint256", "", nil)

	intentArguments = abi.Arguments{
		{Name: "signer", Type: addressType},
		{Name: "tokenId", Type: uint256Type},
		{Name: "amount", Type: uint256Type},
		{Name: "recipient", Type: addressType},
		{Name: "nonce", Type: uint256Type},
	}
}

// ValidateIntent checks that every field of the intent lies in its domain.
func ValidateIntent(intent *types.TransferIntent) error {
	if intent == nil {
		return relayErrors.Wrapf(relayErrors.ErrEncoding, "intent is nil")
	}
	if intent.Signer == (common.Address{}) {
		return relayErrors.Wrapf(relayErrors.ErrEncoding, "signer is the zero address")
	}
	if intent.Recipient == (common.Address{}) {
		return relayErrors.Wrapf(relayErrors.ErrEncoding, "recipient is the zero address")
	}
	return ValidateAmount(intent.Amount)
}

// ValidateAmount checks that v fits an unsigned 256 bit integer.
func ValidateAmount(v *big.Int) error {
	if v == nil {
		return relayErrors.Wrapf(relayErrors.ErrEncoding, "amount is nil")
	}
	if v.Sign() < 0 {
		return relayErrors.Wrapf(relayErrors.ErrEncoding, "amount %s is negative", v)
	}
	if v.Cmp(math.MaxBig256) > 0 {
		return relayErrors.Wrapf(relayErrors.ErrEncoding, "amount exceeds uint256")
	}
	return nil
}

// Encode returns the canonical ABI encoding of the intent.
func Encode(intent *types.TransferIntent) ([]byte, error) {
	if err := ValidateIntent(intent); err != nil {
		return nil, err
	}

	encoded, err := intentArguments.Pack(
		intent.Signer,
		new(big.Int).SetUint64(intent.TokenID),
		new(big.Int).Set(intent.Amount),
		intent.Recipient,
		new(big.Int).SetUint64(intent.Nonce),
	)
	if err != nil {
		return nil, relayErrors.Wrap(relayErrors.ErrEncoding, err)
	}

	return encoded, nil
}

// Hash returns keccak256(Encode(intent)), the digest a signer signs.
func Hash(intent *types.TransferIntent) (common.Hash, error) {
	encoded, err := Encode(intent)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// Decode is the inverse of Encode. Used by tooling that inspects signed payloads.
func Decode(data []byte) (*types.TransferIntent, error) {
	if len(data) != EncodedIntentLength {
		return nil, relayErrors.Wrapf(relayErrors.ErrEncoding, "encoded intent must be %d bytes, got %d", EncodedIntentLength, len(data))
	}

	values, err := intentArguments.Unpack(data)
	if err != nil {
		return nil, relayErrors.Wrap(relayErrors.ErrEncoding, err)
	}

	tokenID, ok := values[1].(*big.Int)
	if !ok || !tokenID.IsUint64() {
		return nil, relayErrors.Wrapf(relayErrors.ErrEncoding, "token id does not fit uint64")
	}
	nonce, ok := values[4].(*big.Int)
	if !ok || !nonce.IsUint64() {
		return nil, relayErrors.Wrapf(relayErrors.ErrEncoding, "nonce does not fit uint64")
	}

	intent := &types.TransferIntent{
		Signer:    values[0].(common.Address),
		TokenID:   tokenID.Uint64(),
		Amount:    values[2].(*big.Int),
		Recipient: values[3].(common.Address),
		Nonce:     nonce.Uint64(),
	}
	if err := ValidateIntent(intent); err != nil {
		return nil, err
	}
	return intent, nil
}

// ParseAddress parses a 0x-prefixed hex address. All-lowercase and all-uppercase
// forms are accepted; mixed case must carry a valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	if !strings.HasPrefix(s, "0x") {
		return common.Address{}, relayErrors.Wrapf(relayErrors.ErrEncoding, "address %q must start with 0x", s)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, relayErrors.Wrapf(relayErrors.ErrEncoding, "address %q is not 20 hex bytes", s)
	}

	addr := common.HexToAddress(s)
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex() != s {
		return common.Address{}, relayErrors.Wrapf(relayErrors.ErrEncoding, "address %q has an invalid checksum", s)
	}

	return addr, nil
}

// ParseAmount parses a decimal or 0x-prefixed hex uint256.
func ParseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, relayErrors.Wrapf(relayErrors.ErrEncoding, "amount is empty")
	}
	v, ok := math.ParseBig256(s)
	if !ok {
		return nil, relayErrors.Wrapf(relayErrors.ErrEncoding, "invalid amount %q", s)
	}
	if err := ValidateAmount(v); err != nil {
		return nil, err
	}
	return v, nil
}

// String renders an intent for logs.
func String(intent *types.TransferIntent) string {
	if intent == nil {
		return "<nil>"
	}
	return fmt.Sprintf("signer=%s token=%d amount=%s recipient=%s nonce=%d",
		intent.Signer.Hex(), intent.TokenID, intent.Amount, intent.Recipient.Hex(), intent.Nonce)
}
