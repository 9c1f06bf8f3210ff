package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "numeric expiry", body: `{"access_token":"abc","expires_in":3600}`},
		{name: "string expiry", body: `{"access_token":"abc","expires_in":"7200"}`},
		{name: "extra fields", body: `{"access_token":"abc","expires_in":60,"token_type":"Bearer","instance_url":"x"}`},
		{name: "missing access_token", body: `{"expires_in":3600}`, wantErr: true},
		{name: "empty access_token", body: `{"access_token":"","expires_in":3600}`, wantErr: true},
		{name: "missing expires_in", body: `{"access_token":"abc"}`, wantErr: true},
		{name: "zero expiry", body: `{"access_token":"abc","expires_in":0}`, wantErr: true},
		{name: "non numeric string expiry", body: `{"access_token":"abc","expires_in":"soon"}`, wantErr: true},
		{name: "not json", body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Decode(TokenResponse, []byte(tt.body), nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDecode_CreatedIssue(t *testing.T) {
	var created struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}

	require.NoError(t, Decode(CreatedIssue, []byte(`{"id":"10001","key":"SH-1","self":"https://x"}`), &created))
	assert.Equal(t, "SH-1", created.Key)
	assert.Equal(t, "10001", created.ID)

	err := Decode(CreatedIssue, []byte(`{"id":"10001"}`), &created)
	assert.ErrorContains(t, err, "created_issue.json")
}

func TestDecode_Issue(t *testing.T) {
	body := `{"key":"SH-2","fields":{"summary":"Broken","status":{"name":"Done"},"assignee":null}}`
	require.NoError(t, Decode(Issue, []byte(body), nil))

	assert.Error(t, Decode(Issue, []byte(`{"key":"SH-2"}`), nil))
}

func TestDecode_IssueWebhook(t *testing.T) {
	assert.NoError(t, Decode(IssueWebhook, []byte(`{"timestamp":1718000000000,"issue":{"key":"SH-3","fields":{}}}`), nil))
	assert.Error(t, Decode(IssueWebhook, []byte(`{"timestamp":1718000000000}`), nil))
	assert.Error(t, Decode(IssueWebhook, []byte(`{"issue":{"key":""}}`), nil))
}

func TestValidate_DecodedMap(t *testing.T) {
	assert.NoError(t, Validate(TokenResponse, map[string]any{"access_token": "abc", "expires_in": float64(3600)}))
	assert.Error(t, Validate(TokenResponse, map[string]any{"access_token": "abc"}))
}
