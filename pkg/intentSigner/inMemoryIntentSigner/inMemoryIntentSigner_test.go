package inMemoryIntentSigner

import (
	"math/big"
	"testing"

	"github.com/Layr-Labs/gasless-relay-go/pkg/logger"
	"github.com/Layr-Labs/gasless-relay-go/pkg/messageCodec"
	"github.com/Layr-Labs/gasless-relay-go/pkg/signatureVerifier"
	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIntent_VerifiesAgainstSigner(t *testing.T) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	signer := NewInMemoryIntentSigner(key, l)
	intent := &types.TransferIntent{
		Signer:    signer.Address(),
		TokenID:   1,
		Amount:    big.NewInt(40),
		Recipient: common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Nonce:     7,
	}

	signed, err := signer.SignIntent(intent)
	require.NoError(t, err)

	expectedHash, err := messageCodec.Hash(intent)
	require.NoError(t, err)
	assert.Equal(t, expectedHash, signed.Hash)

	ok, err := signatureVerifier.NewECDSAVerifier().Verify(signed.Hash, signed.Signature, signer.Address())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignIntent_RejectsForeignSigner(t *testing.T) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	signer := NewInMemoryIntentSigner(key, l)
	intent := &types.TransferIntent{
		Signer:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
		TokenID:   1,
		Amount:    big.NewInt(1),
		Recipient: common.HexToAddress("0x2222222222222222222222222222222222222222"),
	}

	_, err = signer.SignIntent(intent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match key address")
}

func TestNewInMemoryIntentSignerFromHex(t *testing.T) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyHex := hexutil.Encode(crypto.FromECDSA(key))

	signer, err := NewInMemoryIntentSignerFromHex(keyHex, l)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signer.Address())

	_, err = NewInMemoryIntentSignerFromHex("0xnothex", l)
	require.Error(t, err)
}
