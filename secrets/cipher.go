package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// MinSecretLength is the minimum accepted length, in bytes, of the configured
// encryption secret.
const MinSecretLength = 32

var (
	// ErrSecretTooShort is returned by New when the configured secret is
	// shorter than MinSecretLength.
	ErrSecretTooShort = errors.New("encryption secret too short")
	// ErrDecrypt is returned for any ciphertext that fails to decrypt:
	// malformed input, truncated nonce, tampered payload, or key mismatch.
	ErrDecrypt = errors.New("decryption failed")
)

// Cipher performs AES-256-GCM encryption with a process-lifetime key.
// It is stateless per call and safe for unlimited concurrent use.
type Cipher struct {
	key [32]byte
}

// New derives the AES key from secret and returns a ready Cipher.
// The secret must be at least MinSecretLength bytes.
func New(secret string) (*Cipher, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d bytes", ErrSecretTooShort, MinSecretLength)
	}
	return &Cipher{key: sha256.Sum256([]byte(secret))}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns
// base64(nonce || ciphertext || tag). Two calls with identical plaintext
// produce different output. Empty plaintext is encrypted like any other
// input so ciphertext length does not reveal an empty field.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any failure, including ciphertext produced under
// a different key, surfaces as ErrDecrypt; wrong plaintext is never returned
// silently.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding", ErrDecrypt)
	}

	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plaintext), nil
}

func (c *Cipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
