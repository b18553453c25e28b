package intentSigner

import (
	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SignedIntent is an intent together with its digest and signature, ready to hand to a relayer.
type SignedIntent struct {
	Intent    *types.TransferIntent `json:"intent"`
	Hash      common.Hash           `json:"hash"`      // keccak256(abi.encode(intent))
	Signature hexutil.Bytes         `json:"signature"` // r || s || v over hash
}

// IIntentSigner signs transfer intents on behalf of a single address.
type IIntentSigner interface {
	Address() common.Address
	SignIntent(intent *types.TransferIntent) (*SignedIntent, error)
}
