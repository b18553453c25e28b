package localKeyGenerator

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/Layr-Labs/gasless-relay-go/internal/keyGenerator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// keyEntry stores both the private key and metadata for a key
type keyEntry struct {
	privateKey *ecdsa.PrivateKey
	keyName    string
	address    common.Address
}

// LocalKeyGenerator keeps generated keys in process memory
type LocalKeyGenerator struct {
	logger   *zap.Logger
	keyStore map[string]*keyEntry // keyId -> keyEntry
	mu       sync.RWMutex
}

var _ keyGenerator.IKeyGenerator = (*LocalKeyGenerator)(nil)

func NewLocalKeyGenerator(logger *zap.Logger) *LocalKeyGenerator {
	return &LocalKeyGenerator{
		logger:   logger,
		keyStore: make(map[string]*keyEntry),
	}
}

func (l *LocalKeyGenerator) GenerateECDSAKey(ctx context.Context, keyName string) (*keyGenerator.GeneratedECDSAKey, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
	}

	keyId := fmt.Sprintf("local-key-%s", uuid.New().String())
	if err := l.LoadPrivateKey(keyId, privateKey, keyName); err != nil {
		return nil, err
	}

	return l.GetECDSAKeyById(ctx, keyId)
}

func (l *LocalKeyGenerator) GetECDSAKeyById(ctx context.Context, keyId string) (*keyGenerator.GeneratedECDSAKey, error) {
	entry, err := l.entry(keyId)
	if err != nil {
		return nil, err
	}

	return &keyGenerator.GeneratedECDSAKey{
		PublicKey: &entry.privateKey.PublicKey,
		Address:   entry.address,
		KeyId:     keyId,
	}, nil
}

func (l *LocalKeyGenerator) SignDigest(ctx context.Context, keyId string, digest common.Hash) ([]byte, error) {
	entry, err := l.entry(keyId)
	if err != nil {
		return nil, err
	}

	signature, err := crypto.Sign(digest.Bytes(), entry.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest with key %s: %w", keyId, err)
	}

	l.logger.Debug("Signed digest with ECDSA key",
		zap.String("keyId", keyId),
		zap.String("digest", digest.Hex()),
	)

	return signature, nil
}

// ExportPrivateKeyHex returns the 0x prefixed private key. Only local keys can be exported.
func (l *LocalKeyGenerator) ExportPrivateKeyHex(keyId string) (string, error) {
	entry, err := l.entry(keyId)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(crypto.FromECDSA(entry.privateKey)), nil
}

// LoadPrivateKey loads a pre-existing private key into the key store.
func (l *LocalKeyGenerator) LoadPrivateKey(keyId string, privateKey *ecdsa.PrivateKey, keyName string) error {
	if privateKey == nil {
		return fmt.Errorf("private key cannot be nil")
	}

	address := crypto.PubkeyToAddress(privateKey.PublicKey)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.keyStore[keyId]; exists {
		return fmt.Errorf("key with ID %s already exists", keyId)
	}

	l.keyStore[keyId] = &keyEntry{
		privateKey: privateKey,
		keyName:    keyName,
		address:    address,
	}

	l.logger.Info("Loaded private key into store",
		zap.String("keyId", keyId),
		zap.String("keyName", keyName),
		zap.String("address", address.Hex()),
	)

	return nil
}

// LoadPrivateKeyFromHex loads a private key from a hex string into the key store.
// The hex string can optionally start with "0x".
func (l *LocalKeyGenerator) LoadPrivateKeyFromHex(keyId string, privateKeyHex string, keyName string) error {
	privateKey, err := crypto.HexToECDSA(trimHexPrefix(privateKeyHex))
	if err != nil {
		return fmt.Errorf("failed to parse private key from hex: %w", err)
	}

	return l.LoadPrivateKey(keyId, privateKey, keyName)
}

// GetKeyCount returns the number of keys in the store.
func (l *LocalKeyGenerator) GetKeyCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.keyStore)
}

func (l *LocalKeyGenerator) entry(keyId string) (*keyEntry, error) {
	l.mu.RLock()
	entry, exists := l.keyStore[keyId]
	l.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("key with ID %s not found", keyId)
	}
	return entry, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
