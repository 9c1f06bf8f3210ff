package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const WebhookSignatureHeader = "X-Hub-Signature"

// WebhookVerifier checks the HMAC-SHA256 signature Jira attaches to webhooks that were
// registered with a secret ("sha256=<hex>").
type WebhookVerifier struct {
	secret []byte
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

func (v *WebhookVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)

	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (v *WebhookVerifier) Verify(signatureHeader string, body []byte) error {
	encoded, ok := strings.CutPrefix(signatureHeader, "sha256=")
	if !ok {
		return fmt.Errorf("%w: unsupported webhook signature", ErrInvalidSignature)
	}

	got, err := hex.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: malformed webhook signature", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)

	if !hmac.Equal(got, mac.Sum(nil)) {
		return fmt.Errorf("%w: webhook signature mismatch", ErrInvalidSignature)
	}

	return nil
}
