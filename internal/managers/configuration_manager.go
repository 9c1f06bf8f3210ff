package managers

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowbaker/crmbridge/pkg/domain"

	"github.com/rs/zerolog/log"
)

type ConfigurationManagerDependencies struct {
	Repository domain.SettingsRepository
	Defaults   domain.ConfigurationDefaults
}

// ConfigurationManager implements domain.ConfigurationService. Writes are normalized and
// drop the cached token when they point the bridge at another OAuth client.
type ConfigurationManager struct {
	repository domain.SettingsRepository
	defaults   domain.ConfigurationDefaults
}

func NewConfigurationManager(deps ConfigurationManagerDependencies) *ConfigurationManager {
	return &ConfigurationManager{
		repository: deps.Repository,
		defaults:   deps.Defaults,
	}
}

func (m *ConfigurationManager) Get(ctx context.Context) (domain.Configuration, error) {
	config, err := m.repository.GetConfiguration(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotConfigured) {
		return domain.Configuration{}, err
	}

	return config.Normalize(m.defaults), nil
}

func (m *ConfigurationManager) Update(ctx context.Context, config domain.Configuration) error {
	if err := config.Validate(); err != nil {
		return err
	}

	config = config.Normalize(m.defaults)

	previous, err := m.repository.GetConfiguration(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotConfigured) {
		return err
	}

	if err := m.repository.SaveConfiguration(ctx, config); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	if previous.CacheKey() != config.CacheKey() || previous.ClientSecret != config.ClientSecret {
		if err := m.repository.DeleteToken(ctx); err != nil {
			return fmt.Errorf("failed to drop cached token: %w", err)
		}
	}

	log.Info().
		Str("instance_url", config.InstanceURL).
		Str("project_key", config.IssueTrackerProjectKey).
		Msg("Configuration updated")

	return nil
}
