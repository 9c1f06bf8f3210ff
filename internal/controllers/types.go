package controllers

import (
	"encoding/json"
	"time"

	"github.com/flowbaker/crmbridge/pkg/domain"
)

const ActionCreateIssue = "CREATE_ISSUE"

// CRMRequest is the envelope the CRM posts to /salesforce/requests.
type CRMRequest struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type CRMResponse struct {
	Success  bool   `json:"success"`
	IssueKey string `json:"issueKey,omitempty"`
	IssueURL string `json:"issueUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

// IssueWebhook is the subset of a Jira issue webhook the bridge reads.
type IssueWebhook struct {
	Timestamp    int64  `json:"timestamp"`
	WebhookEvent string `json:"webhookEvent"`
	Issue        struct {
		Key    string `json:"key"`
		Fields struct {
			Status *struct {
				Name string `json:"name"`
			} `json:"status"`
			Assignee *struct {
				DisplayName string `json:"displayName"`
			} `json:"assignee"`
		} `json:"fields"`
	} `json:"issue"`
}

func (w IssueWebhook) ToEvent(receivedAt time.Time) domain.IssueChangedEvent {
	event := domain.IssueChangedEvent{
		IssueKey:   w.Issue.Key,
		OccurredAt: receivedAt,
	}

	if w.Timestamp > 0 {
		event.OccurredAt = time.UnixMilli(w.Timestamp).UTC()
	}

	if w.Issue.Fields.Status != nil {
		event.Status = w.Issue.Fields.Status.Name
	}

	if w.Issue.Fields.Assignee != nil {
		event.Assignee = w.Issue.Fields.Assignee.DisplayName
	}

	return event
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
