// Package credentials seals portal passwords stored in the users file.
//
// A sealed value is "sealed:" followed by the base64 (raw, standard alphabet)
// of version || nonce || ciphertext, encrypted with XChaCha20-Poly1305 under a
// 32-byte key. The version byte is authenticated as additional data.
package credentials

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the size in bytes of a sealing key.
const KeySize = chacha20poly1305.KeySize

// Prefix marks a sealed value.
const Prefix = "sealed:"

const version byte = 0x01

// ErrNoKey is returned when a sealed value is opened without a key.
var ErrNoKey = errors.New("sealed credential requires a key")

// Sealer encrypts and decrypts credential values.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a sealer from a 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// ParseKey decodes a base64 key as produced by EncodeKey.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("invalid key encoding: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

// GenerateKey returns a random key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// EncodeKey returns the base64 form of key.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// Seal encrypts plaintext with a fresh random nonce.
func (s *Sealer) Seal(plaintext string) (string, error) {
	buf := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(plaintext)+chacha20poly1305.Overhead)
	buf[0] = version
	nonce := buf[1:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	buf = s.aead.Seal(buf, nonce, []byte(plaintext), []byte{version})
	return Prefix + base64.RawStdEncoding.EncodeToString(buf), nil
}

// Open decrypts a sealed value. Values without the prefix are returned
// unchanged so that plain passwords keep working.
func (s *Sealer) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if s == nil {
		return "", ErrNoKey
	}

	buf, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("invalid sealed value: %w", err)
	}
	if len(buf) < 1+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return "", fmt.Errorf("sealed value too short")
	}
	if buf[0] != version {
		return "", fmt.Errorf("unsupported sealed value version %d", buf[0])
	}

	nonce := buf[1 : 1+chacha20poly1305.NonceSizeX]
	plaintext, err := s.aead.Open(nil, nonce, buf[1+chacha20poly1305.NonceSizeX:], []byte{version})
	if err != nil {
		return "", fmt.Errorf("failed to open sealed value: %w", err)
	}
	return string(plaintext), nil
}
