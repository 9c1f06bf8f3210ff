package salesforce

import (
	"time"

	"github.com/flowbaker/crmbridge/pkg/domain"
)

const (
	SyncObject          = "Jira_Sync__c"
	ExternalIDField     = "External_Issue_Key__c"
	InitialRecordStatus = "Open"

	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// linkageRecord is the Jira_Sync__c row created when an issue is opened from the CRM.
type linkageRecord struct {
	ExternalIssueKey string `json:"External_Issue_Key__c"`
	RecordID         string `json:"Salesforce_Record_Id__c"`
	Status           string `json:"Status__c"`
	SyncStatus       string `json:"Sync_Status__c"`
	IssueURL         string `json:"Issue_URL__c"`
}

// recordUpdate is the upsert body. Empty fields are left untouched on the record.
type recordUpdate struct {
	Status        string `json:"Status__c,omitempty"`
	Assignee      string `json:"Assignee__c,omitempty"`
	LastSyncDate  string `json:"Last_Sync_Date__c,omitempty"`
	SyncStatus    string `json:"Sync_Status__c,omitempty"`
	LastSyncError string `json:"Last_Sync_Error__c,omitempty"`
}

func newRecordUpdate(update domain.RecordUpdate) recordUpdate {
	return recordUpdate{
		Status:        update.Status,
		Assignee:      update.Assignee,
		LastSyncDate:  formatTimestamp(update.LastSyncDate),
		SyncStatus:    string(update.SyncStatus),
		LastSyncError: update.LastSyncError,
	}
}

// saveResult is the body Salesforce returns for record creates and upsert inserts.
type saveResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Created bool   `json:"created"`
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(timestampLayout)
}
