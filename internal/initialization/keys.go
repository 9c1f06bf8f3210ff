package initialization

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/flowbaker/crmbridge/internal/auth"
)

// GeneratedKeys are fresh secrets for a new deployment.
type GeneratedKeys struct {
	AdminPublicKey  string
	AdminPrivateKey string
	EncryptionKey   string
	WebhookSecret   string
}

func GenerateRandomSecret(size int) (string, error) {
	secret := make([]byte, size)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}

	return base64.StdEncoding.EncodeToString(secret), nil
}

func GenerateAllKeys() (GeneratedKeys, error) {
	var keys GeneratedKeys

	adminPublic, adminPrivate, err := auth.GenerateKeyPair()
	if err != nil {
		return keys, fmt.Errorf("failed to generate Ed25519 keys: %w", err)
	}

	encryptionKey, err := GenerateRandomSecret(32)
	if err != nil {
		return keys, err
	}

	webhookSecret, err := GenerateRandomSecret(24)
	if err != nil {
		return keys, err
	}

	keys.AdminPublicKey = adminPublic
	keys.AdminPrivateKey = adminPrivate
	keys.EncryptionKey = encryptionKey
	keys.WebhookSecret = webhookSecret

	return keys, nil
}
