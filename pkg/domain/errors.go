package domain

import (
	"errors"
	"fmt"
)

// ConfigurationError means the bridge is not set up well enough to make the call. It is never retried.
type ConfigurationError struct {
	Message string
	Fields  []string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// ValidationError rejects an inbound command or admin write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Message
}

// AuthError is a failure of the OAuth token endpoint, including a malformed token response.
type AuthError struct {
	Status  int
	Body    string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("auth error: token request failed: %d - %s", e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("auth error: %s: %v", e.Message, e.Err)
	default:
		return "auth error: " + e.Message
	}
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// UpstreamError means a remote API rejected the call. Status is 0 when no response was received.
type UpstreamError struct {
	System SourceSystem
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s request failed: %v", e.System.displayName(), e.Err)
	}

	if e.Body != "" {
		return fmt.Sprintf("%s API error: %d - %s", e.System.displayName(), e.Status, e.Body)
	}

	return fmt.Sprintf("%s API error: %d", e.System.displayName(), e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the remote system answered 404.
func (e *UpstreamError) IsNotFound() bool {
	return e.Status == 404
}

// LinkageError means an issue was created but the CRM linkage record could not be written.
// The issue is not rolled back.
type LinkageError struct {
	IssueKey string
	RecordID string
	Err      error
}

func (e *LinkageError) Error() string {
	return fmt.Sprintf("issue %s created but linking record %s failed: %v", e.IssueKey, e.RecordID, e.Err)
}

func (e *LinkageError) Unwrap() error {
	return e.Err
}

// DecodeError means an upstream response did not match its expected shape.
type DecodeError struct {
	System SourceSystem
	Target string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed %s response for %s: %v", e.System.displayName(), e.Target, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (s SourceSystem) displayName() string {
	switch s {
	case SourceSystemCRM:
		return "Salesforce"
	case SourceSystemIssueTracker:
		return "Jira"
	default:
		return string(s)
	}
}

// IsRetryable reports whether the reverse-sync flow may spend another attempt on err.
// Configuration, validation and auth errors are surfaced immediately.
func IsRetryable(err error) bool {
	var configErr *ConfigurationError
	var validationErr *ValidationError
	var authErr *AuthError

	switch {
	case errors.As(err, &configErr), errors.As(err, &validationErr), errors.As(err, &authErr):
		return false
	default:
		return true
	}
}
