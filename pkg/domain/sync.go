package domain

import (
	"strings"
	"time"
)

type SourceSystem string

const (
	SourceSystemCRM          SourceSystem = "CRM"
	SourceSystemIssueTracker SourceSystem = "IssueTracker"
)

type SyncStatus string

const (
	SyncStatusSynchronized SyncStatus = "Synchronized"
	SyncStatusFailed       SyncStatus = "Failed"
)

// Field names of an inbound SyncEvent coming from the issue tracker.
const (
	EventFieldStatus   = "status"
	EventFieldAssignee = "assignee"
)

// SyncEvent is one inbound change. It only lives for the duration of a sync attempt and its retries.
type SyncEvent struct {
	SourceSystem SourceSystem   `json:"source_system"`
	ExternalKey  string         `json:"external_key"`
	Fields       map[string]any `json:"fields"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// IssueChangedEvent is a status change of a single issue in the issue tracker.
type IssueChangedEvent struct {
	IssueKey   string    `json:"issue_key"`
	Status     string    `json:"status"`
	Assignee   string    `json:"assignee,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e IssueChangedEvent) Validate() error {
	if strings.TrimSpace(e.IssueKey) == "" {
		return &ValidationError{Message: "issue key is required"}
	}

	return nil
}

func (e IssueChangedEvent) ToSyncEvent() SyncEvent {
	fields := map[string]any{
		EventFieldStatus: e.Status,
	}

	if e.Assignee != "" {
		fields[EventFieldAssignee] = e.Assignee
	}

	return SyncEvent{
		SourceSystem: SourceSystemIssueTracker,
		ExternalKey:  e.IssueKey,
		Fields:       fields,
		OccurredAt:   e.OccurredAt,
	}
}

// IssueChangedEventFromSyncEvent narrows a generic event back into a status change.
func IssueChangedEventFromSyncEvent(e SyncEvent) (IssueChangedEvent, error) {
	if e.SourceSystem != SourceSystemIssueTracker {
		return IssueChangedEvent{}, &ValidationError{Message: "event does not originate from the issue tracker"}
	}

	status, _ := e.Fields[EventFieldStatus].(string)
	assignee, _ := e.Fields[EventFieldAssignee].(string)

	return IssueChangedEvent{
		IssueKey:   e.ExternalKey,
		Status:     status,
		Assignee:   assignee,
		OccurredAt: e.OccurredAt,
	}, nil
}

// SyncOutcome is the terminal result of a sync attempt. It is written into the remote record.
type SyncOutcome struct {
	Status        SyncStatus `json:"status"`
	LastError     string     `json:"last_error,omitempty"`
	LastAttemptAt time.Time  `json:"last_attempt_at"`
}

type CreateIssueRequest struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	IssueType   string `json:"issueType,omitempty"`
	RecordID    string `json:"recordId,omitempty"`
	ProjectKey  string `json:"projectKey,omitempty"`
}

// Validate checks required fields and fills the issue type default.
func (r *CreateIssueRequest) Validate() error {
	var missing []string

	if strings.TrimSpace(r.Summary) == "" {
		missing = append(missing, "summary")
	}

	if strings.TrimSpace(r.Description) == "" {
		missing = append(missing, "description")
	}

	if len(missing) > 0 {
		return &ValidationError{Message: strings.Join(missing, " and ") + " required"}
	}

	if strings.TrimSpace(r.IssueType) == "" {
		r.IssueType = DefaultIssueType
	}

	return nil
}

type CreateIssueResult struct {
	IssueKey string `json:"issueKey"`
	IssueURL string `json:"issueUrl"`
}

// Linkage ties an issue tracker key to a CRM record.
type Linkage struct {
	IssueKey string
	RecordID string
	IssueURL string
}

// RecordUpdate is a full-field write onto the CRM record keyed by issue key.
// Empty strings are left out of the write.
type RecordUpdate struct {
	Status        string
	Assignee      string
	SyncStatus    SyncStatus
	LastSyncError string
	LastSyncDate  time.Time
}

// SynchronizedUpdate builds the write for a successfully mirrored status change.
func SynchronizedUpdate(event IssueChangedEvent, now time.Time) RecordUpdate {
	return RecordUpdate{
		Status:       event.Status,
		Assignee:     event.Assignee,
		SyncStatus:   SyncStatusSynchronized,
		LastSyncDate: now,
	}
}

// FailedUpdate builds the terminal failure marker.
func FailedUpdate(outcome SyncOutcome) RecordUpdate {
	return RecordUpdate{
		SyncStatus:    outcome.Status,
		LastSyncError: outcome.LastError,
		LastSyncDate:  outcome.LastAttemptAt,
	}
}
