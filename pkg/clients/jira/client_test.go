package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flowbaker/crmbridge/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return NewClient("bot@example.com", "api-token")
}

func testConfig(baseURL string) domain.Configuration {
	return domain.Configuration{
		InstanceURL:            "https://acme.my.salesforce.com",
		ClientID:               "id",
		ClientSecret:           "secret",
		IssueTrackerProjectKey: "SH",
		IssueTrackerBaseURL:    baseURL,
	}
}

func TestCreateIssue(t *testing.T) {
	var (
		gotPath string
		gotBody map[string]any
		gotUser string
		gotPass string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()

		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"10001","key":"SH-42","self":"https://acme.atlassian.net/rest/api/3/issue/10001"}`)
	}))
	defer server.Close()

	created, err := newTestClient().CreateIssue(context.Background(), testConfig(server.URL+"/"), domain.NewIssue{
		ProjectKey:  "SH",
		Summary:     "Printer on fire",
		Description: "Second floor\n\nSalesforce: 001XX",
		IssueType:   "Bug",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CreatedIssue{ID: "10001", Key: "SH-42"}, created)
	assert.Equal(t, "/rest/api/3/issue", gotPath)
	assert.Equal(t, "bot@example.com", gotUser)
	assert.Equal(t, "api-token", gotPass)

	expected := map[string]any{
		"fields": map[string]any{
			"project":   map[string]any{"key": "SH"},
			"summary":   "Printer on fire",
			"issuetype": map[string]any{"name": "Bug"},
			"description": map[string]any{
				"type":    "doc",
				"version": float64(1),
				"content": []any{
					map[string]any{
						"type": "paragraph",
						"content": []any{
							map[string]any{"type": "text", "text": "Second floor\n\nSalesforce: 001XX"},
						},
					},
				},
			},
		},
	}
	assert.Equal(t, expected, gotBody)
}

func TestCreateIssue_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		assertions func(t *testing.T, err error)
	}{
		{
			name:   "rejected",
			status: http.StatusBadRequest,
			body:   `{"errors":{"project":"project is required"}}`,
			assertions: func(t *testing.T, err error) {
				var upstreamErr *domain.UpstreamError
				require.ErrorAs(t, err, &upstreamErr)
				assert.Equal(t, domain.SourceSystemIssueTracker, upstreamErr.System)
				assert.Equal(t, http.StatusBadRequest, upstreamErr.Status)
				assert.Contains(t, upstreamErr.Body, "project is required")
				assert.Contains(t, err.Error(), "Jira API error: 400")
			},
		},
		{
			name:   "missing key",
			status: http.StatusCreated,
			body:   `{"id":"10001"}`,
			assertions: func(t *testing.T, err error) {
				var decodeErr *domain.DecodeError
				require.ErrorAs(t, err, &decodeErr)
				assert.Equal(t, domain.SourceSystemIssueTracker, decodeErr.System)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>maintenance</html>`,
			assertions: func(t *testing.T, err error) {
				var decodeErr *domain.DecodeError
				require.ErrorAs(t, err, &decodeErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient().CreateIssue(context.Background(), testConfig(server.URL), domain.NewIssue{
				ProjectKey: "SH", Summary: "s", Description: "d", IssueType: "Task",
			})
			tt.assertions(t, err)
		})
	}
}

func TestCreateIssue_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	_, err := newTestClient().CreateIssue(context.Background(), testConfig(baseURL), domain.NewIssue{ProjectKey: "SH", Summary: "s", Description: "d", IssueType: "Task"})

	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Zero(t, upstreamErr.Status)
}

func TestClient_RequiresConfiguration(t *testing.T) {
	_, err := newTestClient().CreateIssue(context.Background(), testConfig(""), domain.NewIssue{})

	var configErr *domain.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, []string{"issueTrackerBaseUrl"}, configErr.Fields)

	_, err = NewClient("", "").GetIssue(context.Background(), testConfig("https://acme.atlassian.net"), "SH-1")
	require.ErrorAs(t, err, &configErr)
}

func TestGetIssue(t *testing.T) {
	var gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/SH-7", r.URL.Path)
		gotQuery = r.URL.Query().Get("fields")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"key":"SH-7","fields":{"summary":"Broken","status":{"name":"In Progress"},"assignee":{"displayName":"Ada Lovelace"}}}`)
	}))
	defer server.Close()

	snapshot, err := newTestClient().GetIssue(context.Background(), testConfig(server.URL), "SH-7")
	require.NoError(t, err)

	assert.Equal(t, "status,assignee,summary", gotQuery)
	assert.Equal(t, domain.IssueSnapshot{Key: "SH-7", Summary: "Broken", Status: "In Progress", Assignee: "Ada Lovelace"}, snapshot)
}

func TestGetIssue_Unassigned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"key":"SH-8","fields":{"summary":"Idle","status":{"name":"Open"},"assignee":null}}`)
	}))
	defer server.Close()

	snapshot, err := newTestClient().GetIssue(context.Background(), testConfig(server.URL), "SH-8")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Assignee)
	assert.Equal(t, "Open", snapshot.Status)
}

func TestGetIssue_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errorMessages":["Issue does not exist or you do not have permission to see it."]}`)
	}))
	defer server.Close()

	_, err := newTestClient().GetIssue(context.Background(), testConfig(server.URL), "SH-404")

	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.True(t, upstreamErr.IsNotFound())

	_, err = newTestClient().GetIssue(context.Background(), testConfig(server.URL), " ")
	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
