// Package token hands out OAuth access tokens for the CRM's client-credentials flow and
// keeps the single cached token fresh.
package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flowbaker/crmbridge/internal/telemetry"
	"github.com/flowbaker/crmbridge/pkg/domain"
	"github.com/flowbaker/crmbridge/pkg/schema"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const (
	TokenPath = "/services/oauth2/token"

	DefaultRefreshTimeout = 30 * time.Second
)

type ManagerDependencies struct {
	Repository domain.SettingsRepository
	HTTPClient *http.Client
	Metrics    *telemetry.Metrics

	// Now defaults to time.Now.
	Now func() time.Time
	// RefreshTimeout bounds a single token request. Defaults to DefaultRefreshTimeout.
	RefreshTimeout time.Duration
}

// Manager implements domain.TokenProvider. Concurrent refreshes for the same OAuth client
// collapse into a single token request whose result every waiter shares.
type Manager struct {
	repository     domain.SettingsRepository
	httpClient     *http.Client
	metrics        *telemetry.Metrics
	now            func() time.Time
	refreshTimeout time.Duration

	group singleflight.Group
}

func NewManager(deps ManagerDependencies) *Manager {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRefreshTimeout}
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	refreshTimeout := deps.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = DefaultRefreshTimeout
	}

	return &Manager{
		repository:     deps.Repository,
		httpClient:     httpClient,
		metrics:        deps.Metrics,
		now:            now,
		refreshTimeout: refreshTimeout,
	}
}

// GetValidToken returns a token that stays valid for at least domain.TokenRefreshBuffer.
// An incomplete configuration fails before the cache or the network is touched.
func (m *Manager) GetValidToken(ctx context.Context, config domain.Configuration) (string, error) {
	if err := config.Validate(); err != nil {
		return "", err
	}

	cached, err := m.repository.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read cached token: %w", err)
	}

	if cached.Usable(m.now()) {
		m.metrics.RecordTokenRequest("cached")
		return cached.AccessToken, nil
	}

	// The flight runs detached from any single caller so one cancelled request does not
	// fail everyone waiting on the same refresh.
	flightCtx := context.WithoutCancel(ctx)

	resultCh := m.group.DoChan(config.CacheKey(), func() (any, error) {
		cached, err := m.repository.GetToken(flightCtx)
		if err == nil && cached.Usable(m.now()) {
			return cached.AccessToken, nil
		}

		return m.refresh(flightCtx, config)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-resultCh:
		if result.Err != nil {
			m.metrics.RecordTokenRequest("failed")
			return "", result.Err
		}

		m.metrics.RecordTokenRequest("refreshed")
		return result.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next call refreshes.
func (m *Manager) Invalidate(ctx context.Context) error {
	return m.repository.DeleteToken(ctx)
}

// TokenSource adapts the manager for oauth2.Transport.
func (m *Manager) TokenSource(ctx context.Context, config domain.Configuration) oauth2.TokenSource {
	return NewTokenSource(ctx, m, config)
}

func (m *Manager) refresh(ctx context.Context, config domain.Configuration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.refreshTimeout)
	defer cancel()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)

	credentials := clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     domain.TrimTrailingSlash(config.InstanceURL) + TokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	requestedAt := m.now()

	tok, err := credentials.Token(ctx)
	if err != nil {
		return "", toAuthError(err)
	}

	if err := schema.Validate(schema.TokenResponse, tokenDocument(tok)); err != nil {
		return "", &domain.AuthError{Message: "malformed token response", Err: err}
	}

	lifetime, err := expiresIn(tok.Extra("expires_in"))
	if err != nil {
		return "", &domain.AuthError{Message: "malformed token response", Err: err}
	}

	cached := domain.CachedToken{
		AccessToken: tok.AccessToken,
		ExpiresAt:   requestedAt.Add(lifetime),
	}

	if err := m.repository.SaveToken(ctx, cached); err != nil {
		return "", fmt.Errorf("failed to cache access token: %w", err)
	}

	log.Debug().
		Str("instance_url", config.InstanceURL).
		Time("expires_at", cached.ExpiresAt).
		Msg("Access token refreshed")

	return cached.AccessToken, nil
}

func toAuthError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return &domain.AuthError{
			Status: retrieveErr.Response.StatusCode,
			Body:   strings.TrimSpace(string(retrieveErr.Body)),
			Err:    err,
		}
	}

	return &domain.AuthError{Message: "token request failed", Err: err}
}

// tokenDocument rebuilds the fields of the token response the schema cares about.
func tokenDocument(tok *oauth2.Token) map[string]any {
	doc := map[string]any{
		"access_token": tok.AccessToken,
	}

	switch v := tok.Extra("expires_in").(type) {
	case nil:
	case int64:
		doc["expires_in"] = float64(v)
	default:
		doc["expires_in"] = v
	}

	return doc
}

func expiresIn(v any) (time.Duration, error) {
	var seconds float64

	switch value := v.(type) {
	case float64:
		seconds = value
	case int64:
		seconds = float64(value)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, fmt.Errorf("expires_in %q is not a number", value)
		}
		seconds = parsed
	default:
		return 0, fmt.Errorf("expires_in is missing")
	}

	if seconds <= 0 {
		return 0, fmt.Errorf("expires_in must be positive, got %v", seconds)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
