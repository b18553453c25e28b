package messageCodec

import (
	"math/big"
	"testing"

	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func FuzzEncodeDecodeRoundTrip(f *testing.F) {
	f.Add([]byte{0x11}, uint64(1), []byte{40}, []byte{0x22}, uint64(7))
	f.Add([]byte{0xff}, uint64(0), []byte{}, []byte{0x01}, ^uint64(0))

	f.Fuzz(func(t *testing.T, signer []byte, tokenID uint64, amount []byte, recipient []byte, nonce uint64) {
		if len(amount) > 32 {
			amount = amount[:32]
		}
		intent := &types.TransferIntent{
			Signer:    common.BytesToAddress(signer),
			TokenID:   tokenID,
			Amount:    new(big.Int).SetBytes(amount),
			Recipient: common.BytesToAddress(recipient),
			Nonce:     nonce,
		}

		encoded, err := Encode(intent)
		if ValidateIntent(intent) != nil {
			require.Error(t, err)
			return
		}
		require.NoError(t, err)
		require.Len(t, encoded, EncodedIntentLength)

		decoded, err := Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, intent.Signer, decoded.Signer)
		require.Equal(t, intent.TokenID, decoded.TokenID)
		require.Equal(t, 0, intent.Amount.Cmp(decoded.Amount))
		require.Equal(t, intent.Recipient, decoded.Recipient)
		require.Equal(t, intent.Nonce, decoded.Nonce)
	})
}
