package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flowbaker/crmbridge/pkg/domain"
)

const (
	ConfigurationKey = "default"
	TokenKey         = "access_token"
)

// Repository stores the configuration record and the cached token as JSON documents.
type Repository struct {
	store Store
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) GetConfiguration(ctx context.Context) (domain.Configuration, error) {
	var config domain.Configuration

	found, err := r.getJSON(ctx, ConfigurationKey, &config)
	if err != nil {
		return domain.Configuration{}, err
	}

	if !found {
		return domain.Configuration{}, domain.ErrNotConfigured
	}

	return config, nil
}

func (r *Repository) SaveConfiguration(ctx context.Context, config domain.Configuration) error {
	return r.setJSON(ctx, ConfigurationKey, config)
}

func (r *Repository) GetToken(ctx context.Context) (*domain.CachedToken, error) {
	var token domain.CachedToken

	found, err := r.getJSON(ctx, TokenKey, &token)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return &token, nil
}

func (r *Repository) SaveToken(ctx context.Context, token domain.CachedToken) error {
	return r.setJSON(ctx, TokenKey, token)
}

func (r *Repository) DeleteToken(ctx context.Context) error {
	if err := r.store.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to delete cached token: %w", err)
	}

	return nil
}

func (r *Repository) getJSON(ctx context.Context, key string, target any) (bool, error) {
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}

	return true, nil
}

func (r *Repository) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return nil
}
