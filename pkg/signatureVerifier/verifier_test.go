package signatureVerifier

import (
	"errors"
	"math/big"
	"testing"

	"github.com/Layr-Labs/gasless-relay-go/pkg/relayErrors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signHash(t *testing.T, hash common.Hash) ([]byte, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(hash.Bytes(), key)
	require.NoError(t, err)
	return sig, crypto.PubkeyToAddress(key.PublicKey)
}

func TestVerify_ValidSignature(t *testing.T) {
	hash := crypto.Keccak256Hash([]byte("transfer"))
	sig, signer := signHash(t, hash)

	ok, err := NewECDSAVerifier().Verify(hash, sig, signer)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_WalletRecoveryByte(t *testing.T) {
	hash := crypto.Keccak256Hash([]byte("transfer"))
	sig, signer := signHash(t, hash)
	sig[64] += 27

	ok, err := NewECDSAVerifier().Verify(hash, sig, signer)
	require.NoError(t, err)
	assert.True(t, ok)
	// caller's buffer is not normalised in place
	assert.GreaterOrEqual(t, sig[64], byte(27))
}

func TestVerify_WrongSigner(t *testing.T) {
	hash := crypto.Keccak256Hash([]byte("transfer"))
	sig, _ := signHash(t, hash)
	other := common.HexToAddress("0x3333333333333333333333333333333333333333")

	ok, err := NewECDSAVerifier().Verify(hash, sig, other)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, relayErrors.ErrInvalidSignature))
}

func TestVerify_DifferentMessage(t *testing.T) {
	hash := crypto.Keccak256Hash([]byte("transfer"))
	sig, signer := signHash(t, hash)

	ok, err := NewECDSAVerifier().Verify(crypto.Keccak256Hash([]byte("other transfer")), sig, signer)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, relayErrors.ErrInvalidSignature))
}

func TestVerify_MalformedSignatures(t *testing.T) {
	hash := crypto.Keccak256Hash([]byte("transfer"))
	valid, signer := signHash(t, hash)

	withV := func(v byte) []byte {
		s := append([]byte{}, valid...)
		s[64] = v
		return s
	}

	tests := []struct {
		name string
		sig  []byte
	}{
		{"empty", nil},
		{"too short", valid[:64]},
		{"too long", append(append([]byte{}, valid...), 0x00)},
		{"bad recovery byte", withV(2)},
		{"bad wallet recovery byte", withV(29)},
		{"zero r and s", make([]byte, 65)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := NewECDSAVerifier().Verify(hash, tt.sig, signer)
			assert.False(t, ok)
			assert.True(t, errors.Is(err, relayErrors.ErrInvalidSignature))
		})
	}
}

func TestVerify_RejectsHighS(t *testing.T) {
	hash := crypto.Keccak256Hash([]byte("transfer"))
	sig, signer := signHash(t, hash)

	// (r, N-s, v^1) is the malleated twin of a valid signature
	n := crypto.S256().Params().N
	s := new(big.Int).SetBytes(sig[32:64])
	highS := new(big.Int).Sub(n, s)

	malleated := append([]byte{}, sig...)
	copy(malleated[32:64], common.LeftPadBytes(highS.Bytes(), 32))
	malleated[64] ^= 1

	ok, err := NewECDSAVerifier().Verify(hash, malleated, signer)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, relayErrors.ErrInvalidSignature))
}

func TestRecoverSigner(t *testing.T) {
	hash := crypto.Keccak256Hash([]byte("transfer"))
	sig, signer := signHash(t, hash)

	recovered, err := RecoverSigner(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, signer, recovered)
}
