package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfiguration_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Configuration
		missing []string
	}{
		{
			name:   "complete",
			config: Configuration{InstanceURL: "https://acme.my.salesforce.com", ClientID: "id", ClientSecret: "secret"},
		},
		{
			name:    "missing instance url",
			config:  Configuration{ClientID: "id", ClientSecret: "secret"},
			missing: []string{"instanceUrl"},
		},
		{
			name:    "missing client id",
			config:  Configuration{InstanceURL: "https://x", ClientSecret: "secret"},
			missing: []string{"clientId"},
		},
		{
			name:    "whitespace secret",
			config:  Configuration{InstanceURL: "https://x", ClientID: "id", ClientSecret: "  "},
			missing: []string{"clientSecret"},
		},
		{
			name:    "empty",
			config:  Configuration{},
			missing: []string{"instanceUrl", "clientId", "clientSecret"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if len(tt.missing) == 0 {
				assert.NoError(t, err)
				assert.True(t, tt.config.IsConfigured())
				return
			}

			var configErr *ConfigurationError
			require.True(t, errors.As(err, &configErr))
			assert.Equal(t, tt.missing, configErr.Fields)
			assert.False(t, tt.config.IsConfigured())
		})
	}
}

func TestConfiguration_Normalize(t *testing.T) {
	defaults := ConfigurationDefaults{ProjectKey: "SH", IssueTrackerBaseURL: "https://acme.atlassian.net/"}

	got := Configuration{
		InstanceURL:  "https://acme.my.salesforce.com/",
		ClientID:     "id",
		ClientSecret: "secret",
	}.Normalize(defaults)

	assert.Equal(t, "https://acme.my.salesforce.com", got.InstanceURL)
	assert.Equal(t, "https://acme.atlassian.net", got.IssueTrackerBaseURL)
	assert.Equal(t, "SH", got.IssueTrackerProjectKey)

	// only one trailing slash is stripped
	assert.Equal(t, "https://x/", TrimTrailingSlash("https://x//"))

	explicit := Configuration{IssueTrackerProjectKey: "OPS", IssueTrackerBaseURL: "https://ops.atlassian.net"}.Normalize(defaults)
	assert.Equal(t, "OPS", explicit.IssueTrackerProjectKey)
	assert.Equal(t, "https://ops.atlassian.net", explicit.IssueTrackerBaseURL)
}

func TestConfiguration_PublicHidesSecret(t *testing.T) {
	config := Configuration{InstanceURL: "https://x", ClientID: "id", ClientSecret: "secret", IssueTrackerBaseURL: "https://j"}

	public := config.Public()

	assert.True(t, public.Configured)
	assert.Equal(t, "https://j/browse/SH-1", config.IssueURL("SH-1"))
	assert.NotContains(t, []string{public.InstanceURL, public.ClientID, public.IssueTrackerBaseURL, public.IssueTrackerProjectKey}, "secret")
}

func TestCachedToken_Usable(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		token  *CachedToken
		usable bool
	}{
		{name: "nil", token: nil, usable: false},
		{name: "empty access token", token: &CachedToken{ExpiresAt: now.Add(time.Hour)}, usable: false},
		{name: "ten minutes left", token: &CachedToken{AccessToken: "t", ExpiresAt: now.Add(10 * time.Minute)}, usable: true},
		{name: "one minute left", token: &CachedToken{AccessToken: "t", ExpiresAt: now.Add(time.Minute)}, usable: false},
		{name: "exactly at buffer", token: &CachedToken{AccessToken: "t", ExpiresAt: now.Add(TokenRefreshBuffer)}, usable: false},
		{name: "expired", token: &CachedToken{AccessToken: "t", ExpiresAt: now.Add(-time.Minute)}, usable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.usable, tt.token.Usable(now))
		})
	}
}
