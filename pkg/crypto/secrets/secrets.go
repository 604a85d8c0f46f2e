// Package secrets encrypts stored credentials with AES-256-GCM. The wire
// format is three colon-separated hex fields, iv:tag:ciphertext, shared
// with the credential-management service, so both sides can round-trip the
// same payloads.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	keyLength   = 32
	nonceLength = 12
	tagLength   = 16

	// scrypt parameters, fixed by the shared credential format.
	scryptN    = 16384
	scryptR    = 8
	scryptP    = 1
	scryptSalt = "salt"
)

var (
	// ErrEmptySecret indicates no master secret was configured.
	ErrEmptySecret = errors.New("secrets: master secret must not be empty")
	// ErrMalformedPayload indicates the ciphertext is not iv:tag:ciphertext.
	ErrMalformedPayload = errors.New("secrets: payload must have three colon-separated fields")
	// ErrInvalidNonceLength indicates the iv field is not 12 bytes.
	ErrInvalidNonceLength = errors.New("secrets: iv must be 12 bytes")
	// ErrInvalidTagLength indicates the auth tag field is not 16 bytes.
	ErrInvalidTagLength = errors.New("secrets: auth tag must be 16 bytes")
)

// Cipher wraps AES-GCM helpers for encrypting credentials before storage.
type Cipher struct {
	key []byte
}

// NewCipher derives the AES key from the master secret via scrypt and
// returns a ready Cipher.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key, err := scrypt.Key([]byte(secret), []byte(scryptSalt), scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("secrets: derive key: %w", err)
	}

	return &Cipher{key: key}, nil
}

// Encrypt seals plaintext and returns it as iv:tag:ciphertext hex fields.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	gcm, err := c.newGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secrets: generate nonce: %w", err)
	}

	// Seal appends the 16-byte auth tag to the ciphertext; the shared
	// format carries the tag as its own field.
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	), nil
}

// Decrypt reverses Encrypt and returns the original plaintext.
func (c *Cipher) Decrypt(payload string) (string, error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 3 {
		return "", ErrMalformedPayload
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("secrets: decode iv: %w", err)
	}

	if len(nonce) != nonceLength {
		return "", ErrInvalidNonceLength
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("secrets: decode auth tag: %w", err)
	}

	if len(tag) != tagLength {
		return "", ErrInvalidTagLength
	}

	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("secrets: decode ciphertext: %w", err)
	}

	gcm, err := c.newGCM()
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("secrets: decrypt payload: %w", err)
	}

	return string(plaintext), nil
}

func (c *Cipher) newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("secrets: create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secrets: init gcm: %w", err)
	}

	return gcm, nil
}
