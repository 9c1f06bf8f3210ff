package domain

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("configuration not found")

// SettingsRepository persists the configuration record and the cached token.
type SettingsRepository interface {
	// GetConfiguration returns ErrNotConfigured when no configuration was saved yet.
	GetConfiguration(ctx context.Context) (Configuration, error)
	SaveConfiguration(ctx context.Context, config Configuration) error

	// GetToken returns nil and no error when no token is cached.
	GetToken(ctx context.Context) (*CachedToken, error)
	SaveToken(ctx context.Context, token CachedToken) error
	DeleteToken(ctx context.Context) error
}

// TokenProvider hands out a bearer token that is valid for at least the refresh buffer.
type TokenProvider interface {
	GetValidToken(ctx context.Context, config Configuration) (string, error)
}

// IssueClient talks to the issue tracker.
type IssueClient interface {
	CreateIssue(ctx context.Context, config Configuration, issue NewIssue) (CreatedIssue, error)
	GetIssue(ctx context.Context, config Configuration, issueKey string) (IssueSnapshot, error)
}

// RecordClient talks to the CRM.
type RecordClient interface {
	CreateLinkage(ctx context.Context, config Configuration, linkage Linkage) error
	UpsertByExternalKey(ctx context.Context, config Configuration, issueKey string, update RecordUpdate) error
}

type NewIssue struct {
	ProjectKey  string
	Summary     string
	Description string
	IssueType   string
}

type CreatedIssue struct {
	ID  string
	Key string
}

// IssueSnapshot is the subset of issue fields mirrored into the CRM.
type IssueSnapshot struct {
	Key      string
	Summary  string
	Status   string
	Assignee string
}

// SyncService runs the two cross-system flows.
type SyncService interface {
	ForwardCreate(ctx context.Context, req CreateIssueRequest) (CreateIssueResult, error)
	ReverseSync(ctx context.Context, event IssueChangedEvent) error
}

// ConfigurationService is the admin view of the configuration record.
type ConfigurationService interface {
	// Get returns the stored configuration with defaults applied. An unconfigured bridge
	// yields the defaults and no error.
	Get(ctx context.Context) (Configuration, error)
	Update(ctx context.Context, config Configuration) error
}
