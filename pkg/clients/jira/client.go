// Package jira is the issue tracker client, built on go-jira against the REST v3 API.
package jira

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flowbaker/crmbridge/pkg/domain"
	"github.com/flowbaker/crmbridge/pkg/schema"

	jira "github.com/andygrunwald/go-jira"
	"github.com/rs/zerolog/log"
)

const (
	issuePath = "rest/api/3/issue"

	DefaultTimeout = 30 * time.Second
)

type ClientConfig struct {
	Email    string
	APIToken string

	HTTPClient *http.Client
	Timeout    time.Duration
}

type ClientOption func(*ClientConfig)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = client
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// Client implements domain.IssueClient. The base URL comes from the stored configuration
// on every call, so a configuration change needs no restart.
type Client struct {
	config *ClientConfig
}

func NewClient(email, apiToken string, opts ...ClientOption) *Client {
	config := &ClientConfig{
		Email:    email,
		APIToken: apiToken,
		Timeout:  DefaultTimeout,
	}

	for _, opt := range opts {
		opt(config)
	}

	return &Client{config: config}
}

func (c *Client) CreateIssue(ctx context.Context, config domain.Configuration, issue domain.NewIssue) (domain.CreatedIssue, error) {
	client, err := c.jiraClient(config)
	if err != nil {
		return domain.CreatedIssue{}, err
	}

	payload := createIssueRequest{
		Fields: createIssueFields{
			Project:     keyRef{Key: issue.ProjectKey},
			Summary:     issue.Summary,
			Description: newDocument(issue.Description),
			IssueType:   nameRef{Name: issue.IssueType},
		},
	}

	req, err := client.NewRequestWithContext(ctx, http.MethodPost, issuePath, payload)
	if err != nil {
		return domain.CreatedIssue{}, fmt.Errorf("failed to build create issue request: %w", err)
	}

	body, err := c.do(client, req)
	if err != nil {
		return domain.CreatedIssue{}, err
	}

	var created createIssueResponse
	if err := schema.Decode(schema.CreatedIssue, body, &created); err != nil {
		return domain.CreatedIssue{}, &domain.DecodeError{System: domain.SourceSystemIssueTracker, Target: "create issue", Err: err}
	}

	log.Info().
		Str("issue_key", created.Key).
		Str("project_key", issue.ProjectKey).
		Msg("Issue created")

	return domain.CreatedIssue{
		ID:  created.ID,
		Key: created.Key,
	}, nil
}

func (c *Client) GetIssue(ctx context.Context, config domain.Configuration, issueKey string) (domain.IssueSnapshot, error) {
	if strings.TrimSpace(issueKey) == "" {
		return domain.IssueSnapshot{}, &domain.ValidationError{Message: "issue key is required"}
	}

	client, err := c.jiraClient(config)
	if err != nil {
		return domain.IssueSnapshot{}, err
	}

	endpoint := fmt.Sprintf("%s/%s?fields=status,assignee,summary", issuePath, url.PathEscape(issueKey))

	req, err := client.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.IssueSnapshot{}, fmt.Errorf("failed to build get issue request: %w", err)
	}

	body, err := c.do(client, req)
	if err != nil {
		return domain.IssueSnapshot{}, err
	}

	var issue issueResponse
	if err := schema.Decode(schema.Issue, body, &issue); err != nil {
		return domain.IssueSnapshot{}, &domain.DecodeError{System: domain.SourceSystemIssueTracker, Target: "get issue", Err: err}
	}

	snapshot := domain.IssueSnapshot{
		Key:     issue.Key,
		Summary: issue.Fields.Summary,
	}

	if issue.Fields.Status != nil {
		snapshot.Status = issue.Fields.Status.Name
	}

	if issue.Fields.Assignee != nil {
		snapshot.Assignee = issue.Fields.Assignee.DisplayName
	}

	return snapshot, nil
}

func (c *Client) jiraClient(config domain.Configuration) (*jira.Client, error) {
	if strings.TrimSpace(config.IssueTrackerBaseURL) == "" {
		return nil, &domain.ConfigurationError{Message: "issueTrackerBaseUrl required", Fields: []string{"issueTrackerBaseUrl"}}
	}

	if c.config.Email == "" || c.config.APIToken == "" {
		return nil, &domain.ConfigurationError{Message: "jira.email and jira.api_token required", Fields: []string{"jira.email", "jira.api_token"}}
	}

	base := http.DefaultTransport
	if c.config.HTTPClient != nil && c.config.HTTPClient.Transport != nil {
		base = c.config.HTTPClient.Transport
	}

	transport := jira.BasicAuthTransport{
		Username:  c.config.Email,
		Password:  c.config.APIToken,
		Transport: base,
	}

	httpClient := &http.Client{
		Transport: &transport,
		Timeout:   c.config.Timeout,
	}

	// go-jira resolves relative paths against the base URL, which needs a trailing slash.
	client, err := jira.NewClient(httpClient, domain.TrimTrailingSlash(config.IssueTrackerBaseURL)+"/")
	if err != nil {
		return nil, &domain.ConfigurationError{Message: fmt.Sprintf("invalid issueTrackerBaseUrl: %v", err), Fields: []string{"issueTrackerBaseUrl"}}
	}

	return client, nil
}

// do sends req and returns the raw body of a 2xx response.
func (c *Client) do(client *jira.Client, req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req, nil)
	if resp == nil {
		return nil, &domain.UpstreamError{System: domain.SourceSystemIssueTracker, Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if err != nil {
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Msg("Jira API request failed")

		return nil, &domain.UpstreamError{
			System: domain.SourceSystemIssueTracker,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
			Err:    err,
		}
	}

	if readErr != nil {
		return nil, &domain.UpstreamError{System: domain.SourceSystemIssueTracker, Status: resp.StatusCode, Err: readErr}
	}

	return body, nil
}
