// Package pii encrypts and decrypts sensitive customer fields (the SSN).
//
// The cipher key is derived from a configured passphrase via SHA-256, so the
// same passphrase always decrypts what it encrypted. Ciphertext is AES-GCM
// with the nonce prepended, base64-encoded for storage in a text column.
//
// Plaintext and ciphertext values are never logged by this package.
package pii

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	dErrors "bankflow/pkg/domain-errors"
)

// Codec performs reversible encryption of a single PII field.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives an AES-256 key from the passphrase and prepares the
// cipher. The passphrase must be non-empty.
func NewCodec(passphrase string) (*Codec, error) {
	if passphrase == "" {
		return nil, dErrors.New(dErrors.CodeCrypto, "encryption passphrase is empty")
	}
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeCrypto, "initialize cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeCrypto, "initialize GCM")
	}
	return &Codec{aead: aead}, nil
}

// Encrypt returns the base64 ciphertext of plaintext. Empty input is
// rejected rather than producing an empty-looking ciphertext.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "plaintext is empty")
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCrypto, "generate nonce")
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Corrupt or tampered ciphertext surfaces a
// crypto error; it never silently returns partial plaintext.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "ciphertext is empty")
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCrypto, "decode ciphertext")
	}
	if len(raw) < c.aead.NonceSize() {
		return "", dErrors.New(dErrors.CodeCrypto, "ciphertext too short")
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCrypto, "decrypt ciphertext")
	}
	return string(plaintext), nil
}
