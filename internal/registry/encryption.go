package registry

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"

	"voipbits/internal/constants"
)

// encryptor optionally encrypts stored token records at rest. With
// encryption disabled it passes values through unchanged.
type encryptor struct {
	gcm cipher.AEAD
	key []byte
}

func newEncryptor(enabled bool) (*encryptor, error) {
	if !enabled {
		return &encryptor{}, nil
	}

	secret := os.Getenv("VOIPBITS_ENCRYPTION_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("VOIPBITS_ENCRYPTION_SECRET environment variable is required when encryption is enabled")
	}
	if len(secret) < 32 {
		return nil, fmt.Errorf("encryption secret must be at least 32 characters long")
	}

	key := pbkdf2.Key([]byte(secret), []byte(constants.EncryptionSalt),
		constants.EncryptionIterations, constants.EncryptionKeySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &encryptor{gcm: gcm, key: key}, nil
}

// EncryptForLookup derives the nonce from the plaintext, so equal
// records always encrypt to the same stored value. Removal and
// idempotent insertion work by string equality against the store, which
// rules out random nonces.
func (e *encryptor) EncryptForLookup(plaintext string) (string, error) {
	if e.gcm == nil {
		return plaintext, nil
	}

	sum := sha256.Sum256(append(append([]byte{}, e.key...), []byte(plaintext)...))
	nonce := sum[:constants.EncryptionNonceSize]

	ciphertext := e.gcm.Seal(nil, nonce, []byte(plaintext), nil) // #nosec G407 - deterministic nonce required for equality lookups
	return base64.StdEncoding.EncodeToString(append(nonce, ciphertext...)), nil
}

func (e *encryptor) Decrypt(stored string) (string, error) {
	if e.gcm == nil {
		return stored, nil
	}

	data, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	if len(data) < constants.EncryptionNonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:constants.EncryptionNonceSize], data[constants.EncryptionNonceSize:]
	plaintext, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}
