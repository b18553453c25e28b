package keyGenerator

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// GeneratedECDSAKey describes a secp256k1 key held by a key generator
type GeneratedECDSAKey struct {
	PublicKey *ecdsa.PublicKey
	Address   common.Address
	KeyId     string
}

// GetPublicKeyBytes returns the uncompressed public key (65 bytes, 0x04 prefixed)
func (gek *GeneratedECDSAKey) GetPublicKeyBytes() ([]byte, error) {
	if gek.PublicKey == nil {
		return nil, fmt.Errorf("public key is nil")
	}
	return crypto.FromECDSAPub(gek.PublicKey), nil
}

func (gek *GeneratedECDSAKey) GetPublicKeyHex() (string, error) {
	pubKeyBytes, err := gek.GetPublicKeyBytes()
	if err != nil {
		return "", fmt.Errorf("failed to get public key bytes: %w", err)
	}
	return hexutil.Encode(pubKeyBytes), nil
}

type IKeyGenerator interface {
	GenerateECDSAKey(ctx context.Context, keyName string) (*GeneratedECDSAKey, error)
	GetECDSAKeyById(ctx context.Context, keyId string) (*GeneratedECDSAKey, error)
	// SignDigest signs a 32 byte digest, returning r || s || v with v in {0, 1}
	SignDigest(ctx context.Context, keyId string, digest common.Hash) ([]byte, error)
}
