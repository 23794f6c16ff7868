// Package privacy implements the patient-record privacy pipeline: reversible
// field encryption and the one-shot anonymization pass built on top of it.
package privacy

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"minihospital/apperrors"
)

// CiphertextPrefix tags every value produced by Codec.Encrypt.
const CiphertextPrefix = "enc:v1:"

// ErrInvalidKey is returned when the field encryption key is empty.
var ErrInvalidKey = errors.New("invalid field encryption key: must not be empty")

// Codec encrypts single text fields with AES-256-GCM.
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	gcm cipher.AEAD
}

// NewCodec creates a codec from a key string.
// The key can be:
//   - a base64 (standard or URL alphabet) encoded 32-byte key
//   - any passphrase, hashed to 32 bytes with SHA-256
func NewCodec(keyInput string) (*Codec, error) {
	if keyInput == "" {
		return nil, ErrInvalidKey
	}

	key := decodeKey(keyInput)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Codec{gcm: gcm}, nil
}

func decodeKey(keyInput string) []byte {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding} {
		if decoded, err := enc.DecodeString(keyInput); err == nil && len(decoded) == 32 {
			return decoded
		}
	}
	hash := sha256.Sum256([]byte(keyInput))
	return hash[:]
}

// Encrypt returns CiphertextPrefix + base64url(nonce || ciphertext || tag).
// A fresh random nonce is drawn per call, so equal inputs encrypt differently.
// Empty input is returned as-is.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	if !utf8.ValidString(plaintext) {
		return "", fmt.Errorf("%w: value is not valid UTF-8 text", apperrors.ErrCodec)
	}

	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return CiphertextPrefix + base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt returns the plaintext of value, or value itself when it is not a
// ciphertext this key can open. Legacy plaintext rows share the same columns
// as encrypted rows, so a failed decryption is not an error.
func (c *Codec) Decrypt(value string) string {
	plaintext, ok := c.open(value)
	if !ok {
		return value
	}
	return plaintext
}

// IsEncrypted reports whether value is a ciphertext produced under this key.
// It costs one decryption attempt.
func (c *Codec) IsEncrypted(value string) bool {
	_, ok := c.open(value)
	return ok
}

func (c *Codec) open(value string) (string, bool) {
	if value == "" || !strings.HasPrefix(value, CiphertextPrefix) {
		return "", false
	}

	data, err := base64.URLEncoding.DecodeString(strings.TrimPrefix(value, CiphertextPrefix))
	if err != nil {
		return "", false
	}

	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize+c.gcm.Overhead() {
		return "", false
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", false
	}

	return string(plaintext), true
}
