package configstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var ErrDecryptionFailed = errors.New("configstore: failed to decrypt value")

// EncryptedStore seals every value with ChaCha20-Poly1305 before handing it to the
// underlying store. The key name is bound as additional data, so a value copied under
// another key fails to open.
type EncryptedStore struct {
	inner Store
	key   []byte
}

// NewEncryptedStore derives the encryption key from secret with HKDF-SHA256.
func NewEncryptedStore(inner Store, secret string) (*EncryptedStore, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption secret is required")
	}

	key, err := deriveEncryptionKey([]byte(secret))
	if err != nil {
		return nil, err
	}

	return &EncryptedStore{
		inner: inner,
		key:   key,
	}, nil
}

func (s *EncryptedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	return s.open(key, sealed)
}

func (s *EncryptedStore) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.seal(key, value)
	if err != nil {
		return err
	}

	return s.inner.Set(ctx, key, sealed)
}

func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *EncryptedStore) Close() error {
	return s.inner.Close()
}

// seal returns nonce || ciphertext.
func (s *EncryptedStore) seal(key string, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, []byte(key)), nil
}

func (s *EncryptedStore) open(key string, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("%w: value for %s is too short", ErrDecryptionFailed, key)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecryptionFailed, key)
	}

	return plaintext, nil
}

func deriveEncryptionKey(secret []byte) ([]byte, error) {
	salt := []byte("crmbridge-configstore")
	info := []byte("settings-encryption-key")

	reader := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, chacha20poly1305.KeySize)

	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}

	return key, nil
}
