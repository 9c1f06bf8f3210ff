package initialization

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flowbaker/crmbridge/internal/config"
	"github.com/flowbaker/crmbridge/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTP:     config.HTTPConfig{ClientTimeout: time.Second, RequestTimeout: time.Second},
		Store:    config.StoreConfig{Backend: "memory"},
		Sync:     config.SyncConfig{MaxAttempts: 3},
		Defaults: config.DefaultsConfig{ProjectKey: "OPS"},
		Log:      config.LogConfig{Format: "console"},
	}
}

func TestNewContainer(t *testing.T) {
	ctx := context.Background()

	container, err := NewContainer(ctx, testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	err = container.GetConfigurationManager().Update(ctx, domain.Configuration{
		InstanceURL:  "https://acme.my.salesforce.com/",
		ClientID:     "id",
		ClientSecret: "secret",
	})
	require.NoError(t, err)

	stored, err := container.GetRepository().GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://acme.my.salesforce.com", stored.InstanceURL)
	assert.Equal(t, "OPS", stored.IssueTrackerProjectKey)

	app, err := container.BuildHTTPServer(ctx)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBuildHTTPServer_InvalidAdminKey(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.PublicKey = "not-a-key"

	container, err := NewContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	_, err = container.BuildHTTPServer(context.Background())
	assert.ErrorContains(t, err, "admin.public_key")
}

func TestNewContainer_StoreFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Backend = "file"

	_, err := NewContainer(context.Background(), cfg)
	assert.Error(t, err)
}
