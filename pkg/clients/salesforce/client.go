// Package salesforce is the CRM client. Requests carry a bearer token obtained from the
// token manager through an oauth2 transport.
package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flowbaker/crmbridge/pkg/domain"
	"github.com/flowbaker/crmbridge/pkg/schema"
	"github.com/flowbaker/crmbridge/pkg/token"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	DefaultAPIVersion = "v64.0"
	DefaultTimeout    = 30 * time.Second
)

type ClientConfig struct {
	APIVersion string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

type ClientOption func(*ClientConfig)

func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		APIVersion: DefaultAPIVersion,
		Timeout:    DefaultTimeout,
		UserAgent:  "crmbridge",
	}
}

func WithAPIVersion(version string) ClientOption {
	return func(c *ClientConfig) {
		c.APIVersion = version
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = client
	}
}

// Client implements domain.RecordClient against the Jira_Sync__c custom object.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	tokens     domain.TokenProvider
}

func NewClient(tokens domain.TokenProvider, options ...ClientOption) *Client {
	config := DefaultConfig()

	for _, option := range options {
		option(config)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		tokens:     tokens,
	}
}

// CreateLinkage inserts the record tying an issue to the originating CRM record.
func (c *Client) CreateLinkage(ctx context.Context, config domain.Configuration, linkage domain.Linkage) error {
	record := linkageRecord{
		ExternalIssueKey: linkage.IssueKey,
		RecordID:         linkage.RecordID,
		Status:           InitialRecordStatus,
		SyncStatus:       string(domain.SyncStatusSynchronized),
		IssueURL:         linkage.IssueURL,
	}

	path := fmt.Sprintf("/sobjects/%s", SyncObject)

	body, err := c.doRequest(ctx, config, http.MethodPost, path, record)
	if err != nil {
		return err
	}

	var result saveResult
	if err := schema.Decode(schema.RecordSaveResult, body, &result); err != nil {
		return &domain.DecodeError{System: domain.SourceSystemCRM, Target: "create linkage", Err: err}
	}

	log.Info().
		Str("issue_key", linkage.IssueKey).
		Str("record_id", linkage.RecordID).
		Str("sync_record_id", result.ID).
		Msg("Linkage record created")

	return nil
}

// UpsertByExternalKey writes update onto the record whose external id is issueKey.
// Salesforce answers 201 with a body when the record was inserted and 200 or 204 on update.
func (c *Client) UpsertByExternalKey(ctx context.Context, config domain.Configuration, issueKey string, update domain.RecordUpdate) error {
	if strings.TrimSpace(issueKey) == "" {
		return &domain.ValidationError{Message: "issue key is required"}
	}

	path := fmt.Sprintf("/sobjects/%s/%s/%s", SyncObject, ExternalIDField, url.PathEscape(issueKey))

	body, err := c.doRequest(ctx, config, http.MethodPatch, path, newRecordUpdate(update))
	if err != nil {
		return err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := schema.Decode(schema.RecordSaveResult, body, nil); err != nil {
		return &domain.DecodeError{System: domain.SourceSystemCRM, Target: "upsert", Err: err}
	}

	return nil
}

func (c *Client) dataURL(config domain.Configuration, path string) string {
	return fmt.Sprintf("%s/services/data/%s%s", domain.TrimTrailingSlash(config.InstanceURL), c.config.APIVersion, path)
}

// doRequest sends an authenticated JSON request and returns the body of a 2xx response.
func (c *Client) doRequest(ctx context.Context, config domain.Configuration, method, path string, payload any) ([]byte, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.dataURL(config, path), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.authorizedClient(ctx, config).Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	return c.handleResponse(req, resp)
}

func (c *Client) authorizedClient(ctx context.Context, config domain.Configuration) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	return oauth2.NewClient(ctx, token.NewTokenSource(ctx, c.tokens, config))
}

func (c *Client) handleResponse(req *http.Request, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.UpstreamError{System: domain.SourceSystemCRM, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Msg("Salesforce API request failed")

		return nil, &domain.UpstreamError{
			System: domain.SourceSystemCRM,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}

// classifyTransportError keeps token failures intact; they come back from the oauth2
// transport wrapped in a *url.Error.
func classifyTransportError(err error) error {
	var configErr *domain.ConfigurationError
	if errors.As(err, &configErr) {
		return configErr
	}

	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	return &domain.UpstreamError{System: domain.SourceSystemCRM, Err: err}
}
