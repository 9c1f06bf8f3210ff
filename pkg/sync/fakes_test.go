package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/flowbaker/crmbridge/pkg/domain"

	"github.com/stretchr/testify/mock"
)

type mockIssueClient struct {
	mock.Mock
}

func (m *mockIssueClient) CreateIssue(ctx context.Context, config domain.Configuration, issue domain.NewIssue) (domain.CreatedIssue, error) {
	args := m.Called(ctx, config, issue)
	return args.Get(0).(domain.CreatedIssue), args.Error(1)
}

func (m *mockIssueClient) GetIssue(ctx context.Context, config domain.Configuration, issueKey string) (domain.IssueSnapshot, error) {
	args := m.Called(ctx, config, issueKey)
	return args.Get(0).(domain.IssueSnapshot), args.Error(1)
}

type upsertCall struct {
	IssueKey    string
	Update      domain.RecordUpdate
	CtxErr      error
	HasDeadline bool
}

// crmRecord is the state of one Jira_Sync__c row in fakeCRM.
type crmRecord struct {
	RecordID      string
	IssueURL      string
	Status        string
	Assignee      string
	SyncStatus    domain.SyncStatus
	LastSyncError string
	LastSyncDate  time.Time
}

// fakeCRM is an in-memory RecordClient. upsertErrs is consumed one entry per upsert;
// once it runs out upserts succeed.
type fakeCRM struct {
	mu stdsync.Mutex

	records    map[string]*crmRecord
	linkages   []domain.Linkage
	upserts    []upsertCall
	upsertErrs []error
	linkageErr error
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{records: map[string]*crmRecord{}}
}

func (f *fakeCRM) CreateLinkage(ctx context.Context, config domain.Configuration, linkage domain.Linkage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.linkages = append(f.linkages, linkage)

	if f.linkageErr != nil {
		return f.linkageErr
	}

	f.records[linkage.IssueKey] = &crmRecord{
		RecordID:   linkage.RecordID,
		IssueURL:   linkage.IssueURL,
		Status:     "Open",
		SyncStatus: domain.SyncStatusSynchronized,
	}

	return nil
}

func (f *fakeCRM) UpsertByExternalKey(ctx context.Context, config domain.Configuration, issueKey string, update domain.RecordUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, hasDeadline := ctx.Deadline()
	f.upserts = append(f.upserts, upsertCall{IssueKey: issueKey, Update: update, CtxErr: ctx.Err(), HasDeadline: hasDeadline})

	if len(f.upsertErrs) > 0 {
		err := f.upsertErrs[0]
		f.upsertErrs = f.upsertErrs[1:]
		if err != nil {
			return err
		}
	}

	record, ok := f.records[issueKey]
	if !ok {
		record = &crmRecord{}
		f.records[issueKey] = record
	}

	if update.Status != "" {
		record.Status = update.Status
	}
	if update.Assignee != "" {
		record.Assignee = update.Assignee
	}
	if update.SyncStatus != "" {
		record.SyncStatus = update.SyncStatus
	}
	if update.LastSyncError != "" {
		record.LastSyncError = update.LastSyncError
	}
	if !update.LastSyncDate.IsZero() {
		record.LastSyncDate = update.LastSyncDate
	}

	return nil
}

// sleepRecorder records requested delays without waiting.
type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

type staticSettings struct {
	config *domain.Configuration
}

func (s staticSettings) GetConfiguration(ctx context.Context) (domain.Configuration, error) {
	if s.config == nil {
		return domain.Configuration{}, domain.ErrNotConfigured
	}

	return *s.config, nil
}

func (s staticSettings) SaveConfiguration(ctx context.Context, config domain.Configuration) error {
	return nil
}

func (s staticSettings) GetToken(ctx context.Context) (*domain.CachedToken, error) {
	return nil, nil
}

func (s staticSettings) SaveToken(ctx context.Context, token domain.CachedToken) error {
	return nil
}

func (s staticSettings) DeleteToken(ctx context.Context) error {
	return nil
}
