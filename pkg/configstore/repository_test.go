package configstore

import (
	"context"
	"testing"
	"time"

	"github.com/flowbaker/crmbridge/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Configuration(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemoryStore())

	_, err := repo.GetConfiguration(ctx)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	config := domain.Configuration{
		InstanceURL:            "https://acme.my.salesforce.com",
		ClientID:               "id",
		ClientSecret:           "secret",
		IssueTrackerProjectKey: "SH",
		IssueTrackerBaseURL:    "https://acme.atlassian.net",
	}
	require.NoError(t, repo.SaveConfiguration(ctx, config))

	got, err := repo.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, config, got)
}

func TestRepository_Token(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemoryStore())

	token, err := repo.GetToken(ctx)
	require.NoError(t, err)
	assert.Nil(t, token)

	expires := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveToken(ctx, domain.CachedToken{AccessToken: "first", ExpiresAt: expires}))
	require.NoError(t, repo.SaveToken(ctx, domain.CachedToken{AccessToken: "second", ExpiresAt: expires.Add(time.Hour)}))

	token, err = repo.GetToken(ctx)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "second", token.AccessToken)
	assert.True(t, token.ExpiresAt.Equal(expires.Add(time.Hour)))

	require.NoError(t, repo.DeleteToken(ctx))

	token, err = repo.GetToken(ctx)
	require.NoError(t, err)
	assert.Nil(t, token)
}

func TestRepository_CorruptValue(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, ConfigurationKey, []byte("not json")))

	_, err := NewRepository(store).GetConfiguration(ctx)
	assert.ErrorContains(t, err, "failed to decode default")
}
