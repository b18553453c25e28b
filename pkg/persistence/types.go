package persistence

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Key layout shared by every backend
const (
	keyPrefixNonce       = "nonce:"
	keyPrefixBalance     = "balance:"
	keyPrefixToken       = "token:"
	KeyRelayFee          = "config:relay_fee"
	KeySchemaVersion     = "metadata:schema_version"
	CurrentSchemaVersion = "v1"
)

// NonceKey is the key of the (signer, nonce) consumption record.
func NonceKey(signer common.Address, nonce uint64) string {
	return fmt.Sprintf("%s%s:%d", keyPrefixNonce, strings.ToLower(signer.Hex()), nonce)
}

// BalanceKey is the key of the (token, owner) balance entry.
func BalanceKey(tokenID uint64, owner common.Address) string {
	return fmt.Sprintf("%s%d:%s", keyPrefixBalance, tokenID, strings.ToLower(owner.Hex()))
}

// TokenKey is the key of a token descriptor.
func TokenKey(id uint64) string {
	return fmt.Sprintf("%s%d", keyPrefixToken, id)
}
