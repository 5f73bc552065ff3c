package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Sealer encrypts personal data stored at rest (AES-GCM, random nonce per
// value). Every value is bound to its owner through the additional data, so
// a ciphertext copied onto another row fails to open.
type Sealer struct {
	gcm cipher.AEAD
}

var ErrMalformed = errors.New("sealed value is malformed")

// NewSealer accepts a raw 16, 24 or 32 byte key or its standard base64 form.
func NewSealer(key string) (*Sealer, error) {
	k := []byte(key)
	if !validKeyLen(len(k)) {
		decoded, err := base64.StdEncoding.DecodeString(key)
		if err != nil || !validKeyLen(len(decoded)) {
			return nil, fmt.Errorf("encryption key must be 16, 24 or 32 bytes (raw or base64); got %d", len(k))
		}
		k = decoded
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Sealer{gcm: gcm}, nil
}

func validKeyLen(n int) bool { return n == 16 || n == 24 || n == 32 }

// Seal returns base64(nonce || ciphertext). The empty string stays empty.
func (s *Sealer) Seal(chatID int64, plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	ct := s.gcm.Seal(nonce, nonce, []byte(plaintext), aad(chatID))
	return base64.StdEncoding.EncodeToString(ct), nil
}

func (s *Sealer) Open(chatID int64, sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ns := s.gcm.NonceSize()
	if len(data) < ns {
		return "", ErrMalformed
	}
	pt, err := s.gcm.Open(nil, data[:ns], data[ns:], aad(chatID))
	if err != nil {
		return "", fmt.Errorf("gcm open: %w", err)
	}
	return string(pt), nil
}

func aad(chatID int64) []byte { return []byte("chat:" + strconv.FormatInt(chatID, 10)) }
