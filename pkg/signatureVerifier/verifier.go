package signatureVerifier

import (
	"math/big"

	"github.com/Layr-Labs/gasless-relay-go/pkg/relayErrors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

/*
Signatures are 65 byte secp256k1 signatures r || s || v over the 32 byte intent digest,
exactly as produced by go-ethereum crypto.Sign or eth_sign-style wallets signing a raw hash.

  - v may be 0/1 (go-ethereum) or 27/28 (wallet convention); anything else is rejected
  - s must be in the lower half of the curve order so a signature has a single valid encoding
  - the signer is recovered from the signature and compared with the claimed signer
*/

// ISignatureVerifier decides whether a signature over hash was produced by claimedSigner.
type ISignatureVerifier interface {
	Verify(hash common.Hash, signature []byte, claimedSigner common.Address) (bool, error)
}

// ECDSAVerifier verifies secp256k1 signatures by public key recovery.
type ECDSAVerifier struct{}

// NewECDSAVerifier creates a verifier
func NewECDSAVerifier() *ECDSAVerifier {
	return &ECDSAVerifier{}
}

// Verify returns true only when the signer recovered from signature equals claimedSigner.
// Every failure is reported as ErrInvalidSignature.
func (v *ECDSAVerifier) Verify(hash common.Hash, signature []byte, claimedSigner common.Address) (bool, error) {
	recovered, err := RecoverSigner(hash, signature)
	if err != nil {
		return false, err
	}

	if recovered != claimedSigner {
		return false, relayErrors.Wrapf(relayErrors.ErrInvalidSignature,
			"recovered signer %s does not match claimed signer %s", recovered.Hex(), claimedSigner.Hex())
	}

	return true, nil
}

// RecoverSigner recovers the address that produced signature over hash.
func RecoverSigner(hash common.Hash, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, relayErrors.Wrapf(relayErrors.ErrInvalidSignature,
			"invalid signature length: expected %d bytes, got %d", crypto.SignatureLength, len(signature))
	}

	// Work on a copy so the caller's recovery byte is left untouched
	sig := make([]byte, len(signature))
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[64], r, s, true) {
		return common.Address{}, relayErrors.Wrapf(relayErrors.ErrInvalidSignature, "signature values out of range")
	}

	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return common.Address{}, relayErrors.Wrap(relayErrors.ErrInvalidSignature, err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}
