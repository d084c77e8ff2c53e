// Package cryptox composes the standard primitives into the storage scheme:
// a salted one-way digest for pseudonymous keys and an AES-256-GCM envelope
// for message bodies.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/whistles/internal/common"
)

const (
	keySize   = 32
	nonceSize = 12
)

// randReader is a seam for tests.
var randReader io.Reader = rand.Reader

// Hash returns the lowercase hex SHA-256 of salt + "+" + plain.
//
// The output must stay byte-compatible with rows written by earlier
// deployments, so neither the separator nor the order may change.
func Hash(plain, salt string) string {
	sum := sha256.Sum256([]byte(salt + "+" + plain))
	return hex.EncodeToString(sum[:])
}

// ParseKey decodes a JWK "k" value (base64url, padding optional) into a
// 256-bit AES key.
func ParseKey(secret string) ([]byte, error) {
	key, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidSecret, err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", common.ErrInvalidSecret, keySize, len(key))
	}
	return key, nil
}

// Envelope is the persisted form of an encrypted message. encoding/json
// writes []byte as standard padded base64, which is the wire format.
type Envelope struct {
	IV         []byte `json:"i"`
	Ciphertext []byte `json:"e"`
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under secret with a fresh random nonce and returns
// the JSON-serialized envelope.
func Encrypt(plaintext []byte, secret string) (string, error) {
	key, err := ParseKey(secret)
	if err != nil {
		return "", err
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	b, err := json.Marshal(Envelope{IV: nonce, Ciphertext: aesgcm.Seal(nil, nonce, plaintext, nil)})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decrypt opens an envelope produced by Encrypt. Every failure, including a
// malformed envelope or secret, is reported as common.ErrDecryption.
func Decrypt(envelope string, secret string) ([]byte, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(envelope), &env); err != nil {
		return nil, common.ErrDecryption
	}
	if len(env.IV) != nonceSize {
		return nil, common.ErrDecryption
	}

	key, err := ParseKey(secret)
	if err != nil {
		return nil, common.ErrDecryption
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, common.ErrDecryption
	}

	plaintext, err := aesgcm.Open(nil, env.IV, env.Ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryption
	}
	return plaintext, nil
}

// EncryptJSON marshals v and encrypts the result.
func EncryptJSON(v any, secret string) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Encrypt(plaintext, secret)
}

// DecryptJSON decrypts envelope and unmarshals the plaintext into v.
func DecryptJSON(envelope, secret string, v any) error {
	plaintext, err := Decrypt(envelope, secret)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return common.ErrDecryption
	}
	return nil
}
