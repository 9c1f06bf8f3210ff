// Package schema validates upstream responses and inbound commands against JSON Schemas
// before they are decoded into typed structs.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const tokenResponseSchema = `{
	"type": "object",
	"required": ["access_token", "expires_in"],
	"properties": {
		"access_token": {"type": "string", "minLength": 1},
		"expires_in": {
			"oneOf": [
				{"type": "number", "exclusiveMinimum": 0},
				{"type": "string", "pattern": "^[0-9]*[1-9][0-9]*$"}
			]
		}
	}
}`

const createdIssueSchema = `{
	"type": "object",
	"required": ["key"],
	"properties": {
		"id": {"type": "string"},
		"key": {"type": "string", "minLength": 1}
	}
}`

const issueSchema = `{
	"type": "object",
	"required": ["key", "fields"],
	"properties": {
		"key": {"type": "string", "minLength": 1},
		"fields": {
			"type": "object",
			"properties": {
				"summary": {"type": ["string", "null"]},
				"status": {
					"type": ["object", "null"],
					"properties": {"name": {"type": "string"}}
				},
				"assignee": {
					"type": ["object", "null"],
					"properties": {"displayName": {"type": "string"}}
				}
			}
		}
	}
}`

const recordSaveResultSchema = `{
	"type": "object",
	"required": ["id"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"success": {"type": "boolean"}
	}
}`

const createIssueCommandSchema = `{
	"type": "object",
	"required": ["action"],
	"properties": {
		"action": {"type": "string", "minLength": 1},
		"data": {
			"type": "object",
			"properties": {
				"summary": {"type": "string"},
				"description": {"type": "string"},
				"issueType": {"type": "string"},
				"recordId": {"type": "string"},
				"projectKey": {"type": "string"}
			}
		}
	}
}`

const issueWebhookSchema = `{
	"type": "object",
	"required": ["issue"],
	"properties": {
		"timestamp": {"type": "number"},
		"webhookEvent": {"type": "string"},
		"issue": {
			"type": "object",
			"required": ["key"],
			"properties": {
				"key": {"type": "string", "minLength": 1},
				"fields": {"type": "object"}
			}
		}
	}
}`

var (
	// TokenResponse is the OAuth token endpoint response.
	TokenResponse = jsonschema.MustCompileString("token_response.json", tokenResponseSchema)
	// CreatedIssue is the issue tracker's create-issue response.
	CreatedIssue = jsonschema.MustCompileString("created_issue.json", createdIssueSchema)
	// Issue is a single issue read from the issue tracker.
	Issue = jsonschema.MustCompileString("issue.json", issueSchema)
	// RecordSaveResult is the CRM response to a record create.
	RecordSaveResult = jsonschema.MustCompileString("record_save_result.json", recordSaveResultSchema)
	// CRMRequest is the inbound action envelope sent by the CRM.
	CRMRequest = jsonschema.MustCompileString("crm_request.json", createIssueCommandSchema)
	// IssueWebhook is the inbound issue tracker webhook payload.
	IssueWebhook = jsonschema.MustCompileString("issue_webhook.json", issueWebhookSchema)
)

// Decode validates data against s and then unmarshals it into target.
// A non-nil error means the document did not match the schema or was not JSON at all.
func Decode(s *jsonschema.Schema, data []byte, target any) error {
	doc, err := unmarshalDocument(data)
	if err != nil {
		return err
	}

	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("document does not match %s: %w", s.Location, err)
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}

	return nil
}

// Validate checks an already decoded value. Numbers must be float64 or json.Number.
func Validate(s *jsonschema.Schema, doc any) error {
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("document does not match %s: %w", s.Location, err)
	}

	return nil
}

func unmarshalDocument(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	return doc, nil
}
