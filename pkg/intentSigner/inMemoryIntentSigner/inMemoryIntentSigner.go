package inMemoryIntentSigner

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/Layr-Labs/gasless-relay-go/pkg/intentSigner"
	"github.com/Layr-Labs/gasless-relay-go/pkg/messageCodec"
	"github.com/Layr-Labs/gasless-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

type InMemoryIntentSigner struct {
	logger     *zap.Logger
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

var _ intentSigner.IIntentSigner = (*InMemoryIntentSigner)(nil)

func NewInMemoryIntentSigner(privateKey *ecdsa.PrivateKey, logger *zap.Logger) *InMemoryIntentSigner {
	return &InMemoryIntentSigner{
		logger:     logger,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// NewInMemoryIntentSignerFromHex loads a secp256k1 private key given as hex, with or without 0x.
func NewInMemoryIntentSignerFromHex(privateKeyHex string, logger *zap.Logger) (*InMemoryIntentSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("error loading private key: %w", err)
	}
	return NewInMemoryIntentSigner(key, logger), nil
}

func (s *InMemoryIntentSigner) Address() common.Address {
	return s.address
}

// SignIntent signs the canonical digest of intent. The intent's signer must be this key's address.
func (s *InMemoryIntentSigner) SignIntent(intent *types.TransferIntent) (*intentSigner.SignedIntent, error) {
	if intent == nil {
		return nil, fmt.Errorf("intent is nil")
	}
	if intent.Signer != s.address {
		return nil, fmt.Errorf("intent signer %s does not match key address %s", intent.Signer.Hex(), s.address.Hex())
	}

	hash, err := messageCodec.Hash(intent)
	if err != nil {
		return nil, fmt.Errorf("failed to hash intent: %w", err)
	}

	sig, err := crypto.Sign(hash.Bytes(), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign intent: %w", err)
	}

	s.logger.Sugar().Debugw("Signed transfer intent",
		"signer", s.address.Hex(),
		"token_id", intent.TokenID,
		"nonce", intent.Nonce,
		"hash", hash.Hex())

	return &intentSigner.SignedIntent{
		Intent:    intent,
		Hash:      hash,
		Signature: sig,
	}, nil
}
