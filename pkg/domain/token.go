package domain

import "time"

// TokenRefreshBuffer is how long before expiry a cached token stops being served.
const TokenRefreshBuffer = 5 * time.Minute

// CachedToken is the persisted OAuth access token. It is replaced wholesale on refresh.
type CachedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Usable reports whether the token can still be handed out at the given instant.
func (t *CachedToken) Usable(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	return now.Before(t.ExpiresAt.Add(-TokenRefreshBuffer))
}
