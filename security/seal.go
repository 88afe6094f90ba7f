// Package security seals small secrets, such as stored credentials, under a
// passphrase.
package security

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidCiphertext is returned when opening fails, including when the
// passphrase is wrong.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// SaltSize is the length of the random salt prefixed to sealed data.
const SaltSize = 16

// Seal encrypts plaintext with XChaCha20-Poly1305 under a key derived from
// passphrase. info binds the ciphertext to its purpose and must match on
// Open. Output format: salt || nonce || ciphertext || tag
func Seal(passphrase string, plaintext, info []byte) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	key, err := PassphraseKey(passphrase, salt, info)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("create aead: %w", err)
	}

	out := make([]byte, SaltSize+aead.NonceSize(), SaltSize+aead.NonceSize()+len(plaintext)+aead.Overhead())
	copy(out, salt)
	nonce := out[SaltSize:]
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(out, nonce, plaintext, info), nil
}

// Open reverses Seal.
func Open(passphrase string, data, info []byte) ([]byte, error) {
	if len(data) < SaltSize+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, ErrInvalidCiphertext
	}
	salt := data[:SaltSize]
	key, err := PassphraseKey(passphrase, salt, info)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("create aead: %w", err)
	}

	nonce := data[SaltSize : SaltSize+aead.NonceSize()]
	plaintext, err := aead.Open(nil, nonce, data[SaltSize+aead.NonceSize():], info)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return plaintext, nil
}

// Zero overwrites b.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
