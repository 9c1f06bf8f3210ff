package domain

import (
	"strings"
)

const (
	DefaultIssueType = "Task"
)

// Configuration is the single active connection record shared by the bridge.
type Configuration struct {
	InstanceURL            string `json:"instanceUrl"`
	ClientID               string `json:"clientId"`
	ClientSecret           string `json:"clientSecret"`
	IssueTrackerProjectKey string `json:"issueTrackerProjectKey"`
	IssueTrackerBaseURL    string `json:"issueTrackerBaseUrl"`
}

// ConfigurationDefaults are applied to optional fields when a configuration is written.
type ConfigurationDefaults struct {
	ProjectKey          string
	IssueTrackerBaseURL string
}

// IsConfigured reports whether the fields required for authenticated calls are present.
func (c Configuration) IsConfigured() bool {
	return len(c.MissingFields()) == 0
}

// MissingFields returns the names of the required fields that are empty.
func (c Configuration) MissingFields() []string {
	var missing []string

	if strings.TrimSpace(c.InstanceURL) == "" {
		missing = append(missing, "instanceUrl")
	}

	if strings.TrimSpace(c.ClientID) == "" {
		missing = append(missing, "clientId")
	}

	if strings.TrimSpace(c.ClientSecret) == "" {
		missing = append(missing, "clientSecret")
	}

	return missing
}

// Validate returns a ConfigurationError naming every missing required field.
func (c Configuration) Validate() error {
	missing := c.MissingFields()
	if len(missing) == 0 {
		return nil
	}

	return &ConfigurationError{
		Message: strings.Join(missing, ", ") + " required",
		Fields:  missing,
	}
}

// Normalize fills optional fields from defaults and strips one trailing slash from both URLs.
func (c Configuration) Normalize(defaults ConfigurationDefaults) Configuration {
	if c.IssueTrackerProjectKey == "" {
		c.IssueTrackerProjectKey = defaults.ProjectKey
	}

	if c.IssueTrackerBaseURL == "" {
		c.IssueTrackerBaseURL = defaults.IssueTrackerBaseURL
	}

	c.InstanceURL = TrimTrailingSlash(c.InstanceURL)
	c.IssueTrackerBaseURL = TrimTrailingSlash(c.IssueTrackerBaseURL)

	return c
}

// CacheKey identifies the OAuth client a token belongs to.
func (c Configuration) CacheKey() string {
	return c.InstanceURL + "|" + c.ClientID
}

// IssueURL returns the browser URL of an issue in the issue tracker.
func (c Configuration) IssueURL(issueKey string) string {
	return c.IssueTrackerBaseURL + "/browse/" + issueKey
}

// TrimTrailingSlash removes a single trailing slash.
func TrimTrailingSlash(u string) string {
	return strings.TrimSuffix(u, "/")
}

// PublicConfiguration is the admin-facing view of the configuration; it never carries the secret.
type PublicConfiguration struct {
	InstanceURL            string `json:"instanceUrl"`
	ClientID               string `json:"clientId"`
	IssueTrackerProjectKey string `json:"issueTrackerProjectKey"`
	IssueTrackerBaseURL    string `json:"issueTrackerBaseUrl"`
	Configured             bool   `json:"configured"`
}

func (c Configuration) Public() PublicConfiguration {
	return PublicConfiguration{
		InstanceURL:            c.InstanceURL,
		ClientID:               c.ClientID,
		IssueTrackerProjectKey: c.IssueTrackerProjectKey,
		IssueTrackerBaseURL:    c.IssueTrackerBaseURL,
		Configured:             c.IsConfigured(),
	}
}
