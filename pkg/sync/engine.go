// Package sync moves changes between the issue tracker and the CRM.
//
// The forward flow creates an issue for a CRM request and links it back exactly once.
// The reverse flow mirrors an issue status change into the CRM with bounded retries and
// leaves a Failed marker on the record when it gives up.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowbaker/crmbridge/internal/telemetry"
	"github.com/flowbaker/crmbridge/pkg/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CRMReferencePrefix introduces the CRM record id appended to an issue description.
const CRMReferencePrefix = "\n\nSalesforce: "

type EngineDependencies struct {
	Settings domain.SettingsRepository
	Issues   domain.IssueClient
	Records  domain.RecordClient
	Metrics  *telemetry.Metrics

	Defaults    domain.ConfigurationDefaults
	RetryPolicy RetryPolicy

	// Now and Sleep default to the wall clock.
	Now   func() time.Time
	Sleep SleepFunc
}

type Engine struct {
	settings domain.SettingsRepository
	issues   domain.IssueClient
	records  domain.RecordClient
	metrics  *telemetry.Metrics

	defaults domain.ConfigurationDefaults
	policy   RetryPolicy

	now   func() time.Time
	sleep SleepFunc
}

func NewEngine(deps EngineDependencies) *Engine {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	sleep := deps.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Engine{
		settings: deps.Settings,
		issues:   deps.Issues,
		records:  deps.Records,
		metrics:  deps.Metrics,
		defaults: deps.Defaults,
		policy:   deps.RetryPolicy.withDefaults(),
		now:      now,
		sleep:    sleep,
	}
}

// ForwardCreate opens an issue for a CRM request and, when the request names a CRM record,
// creates the linkage record. It is never retried. A linkage failure returns the created
// issue together with a *domain.LinkageError; the issue is not rolled back.
func (e *Engine) ForwardCreate(ctx context.Context, req domain.CreateIssueRequest) (domain.CreateIssueResult, error) {
	startedAt := e.now()

	if err := req.Validate(); err != nil {
		return domain.CreateIssueResult{}, err
	}

	config, err := e.loadConfiguration(ctx)
	if err != nil {
		return domain.CreateIssueResult{}, err
	}

	// Fail before the issue exists rather than leave it unlinked.
	if req.RecordID != "" {
		if err := config.Validate(); err != nil {
			return domain.CreateIssueResult{}, err
		}
	}

	projectKey := req.ProjectKey
	if projectKey == "" {
		projectKey = config.IssueTrackerProjectKey
	}

	description := req.Description
	if req.RecordID != "" {
		description += CRMReferencePrefix + req.RecordID
	}

	created, err := e.issues.CreateIssue(ctx, config, domain.NewIssue{
		ProjectKey:  projectKey,
		Summary:     req.Summary,
		Description: description,
		IssueType:   req.IssueType,
	})
	e.metrics.RecordSyncAttempt(telemetry.FlowForward, err == nil)
	if err != nil {
		e.metrics.RecordSyncOutcome(telemetry.FlowForward, "failed", e.now().Sub(startedAt))
		return domain.CreateIssueResult{}, err
	}

	result := domain.CreateIssueResult{
		IssueKey: created.Key,
		IssueURL: config.IssueURL(created.Key),
	}

	if req.RecordID != "" {
		err := e.records.CreateLinkage(ctx, config, domain.Linkage{
			IssueKey: created.Key,
			RecordID: req.RecordID,
			IssueURL: result.IssueURL,
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("issue_key", created.Key).
				Str("record_id", req.RecordID).
				Msg("Issue created but linkage record failed")

			e.metrics.RecordSyncOutcome(telemetry.FlowForward, "unlinked", e.now().Sub(startedAt))

			return result, &domain.LinkageError{IssueKey: created.Key, RecordID: req.RecordID, Err: err}
		}
	}

	e.metrics.RecordSyncOutcome(telemetry.FlowForward, "created", e.now().Sub(startedAt))

	return result, nil
}

type reverseState int

const (
	stateAttempting reverseState = iota
	stateSucceeded
	stateExhausted
)

// ReverseSync mirrors an issue change into the CRM record keyed by the issue key.
//
// Each attempt is a full-field upsert. A failed attempt is retried after the policy's
// delay until MaxAttempts is spent, the error is not retryable, or the next delay would
// outlive ctx. Then one Failed marker is written, not retried, and the last attempt's
// error is returned. A missing configuration is returned as is with no marker.
func (e *Engine) ReverseSync(ctx context.Context, event domain.IssueChangedEvent) error {
	startedAt := e.now()

	if err := event.Validate(); err != nil {
		return err
	}

	config, err := e.loadConfiguration(ctx)
	if err == nil {
		err = config.Validate()
	}
	if err != nil {
		e.metrics.RecordSyncOutcome(telemetry.FlowReverse, "rejected", e.now().Sub(startedAt))
		return err
	}

	logger := log.With().
		Str("run_id", uuid.NewString()).
		Str("issue_key", event.IssueKey).
		Logger()

	delays := e.policy.Delays()

	var (
		state   = stateAttempting
		attempt = 0
		lastErr error
	)

	for {
		switch state {
		case stateAttempting:
			lastErr = e.records.UpsertByExternalKey(ctx, config, event.IssueKey, domain.SynchronizedUpdate(event, e.now()))
			e.metrics.RecordSyncAttempt(telemetry.FlowReverse, lastErr == nil)

			if lastErr == nil {
				state = stateSucceeded
				continue
			}

			logger.Warn().
				Err(lastErr).
				Int("attempt", attempt+1).
				Int("max_attempts", e.policy.MaxAttempts).
				Msg("Sync attempt failed")

			if attempt+1 >= e.policy.MaxAttempts || !domain.IsRetryable(lastErr) {
				state = stateExhausted
				continue
			}

			if err := e.wait(ctx, delays[attempt]); err != nil {
				logger.Warn().Err(err).Msg("Abandoning remaining sync attempts")
				state = stateExhausted
				continue
			}

			attempt++

		case stateSucceeded:
			logger.Info().
				Str("status", event.Status).
				Int("attempts", attempt+1).
				Msg("Issue change synchronized")

			e.metrics.RecordSyncOutcome(telemetry.FlowReverse, "succeeded", e.now().Sub(startedAt))

			return nil

		case stateExhausted:
			e.writeFailureMarker(ctx, config, event.IssueKey, lastErr)
			e.metrics.RecordSyncOutcome(telemetry.FlowReverse, "exhausted", e.now().Sub(startedAt))

			return fmt.Errorf("sync of %s failed after %d attempt(s): %w", event.IssueKey, attempt+1, lastErr)
		}
	}
}

// ResyncIssue reads the current state of an issue and pushes it through ReverseSync.
func (e *Engine) ResyncIssue(ctx context.Context, issueKey string) error {
	config, err := e.loadConfiguration(ctx)
	if err != nil {
		return err
	}

	snapshot, err := e.issues.GetIssue(ctx, config, issueKey)
	if err != nil {
		return fmt.Errorf("failed to read issue %s: %w", issueKey, err)
	}

	return e.ReverseSync(ctx, domain.IssueChangedEvent{
		IssueKey:   snapshot.Key,
		Status:     snapshot.Status,
		Assignee:   snapshot.Assignee,
		OccurredAt: e.now(),
	})
}

// wait sleeps for d unless that would run past the context deadline.
func (e *Engine) wait(ctx context.Context, d time.Duration) error {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < d {
		return fmt.Errorf("backoff of %s exceeds the request deadline: %w", d, context.DeadlineExceeded)
	}

	return e.sleep(ctx, d)
}

func (e *Engine) writeFailureMarker(ctx context.Context, config domain.Configuration, issueKey string, cause error) {
	markerCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.policy.FailureWriteTimeout)
	defer cancel()

	outcome := domain.SyncOutcome{
		Status:        domain.SyncStatusFailed,
		LastError:     cause.Error(),
		LastAttemptAt: e.now(),
	}

	err := e.records.UpsertByExternalKey(markerCtx, config, issueKey, domain.FailedUpdate(outcome))
	e.metrics.RecordFailureMarker(err == nil)

	if err != nil {
		log.Error().
			Err(err).
			Str("issue_key", issueKey).
			AnErr("cause", cause).
			Msg("Failed to record sync failure")
		return
	}

	log.Warn().
		Str("issue_key", issueKey).
		Str("last_error", outcome.LastError).
		Msg("Sync marked as failed")
}

func (e *Engine) loadConfiguration(ctx context.Context) (domain.Configuration, error) {
	config, err := e.settings.GetConfiguration(ctx)
	if errors.Is(err, domain.ErrNotConfigured) {
		return domain.Configuration{}, &domain.ConfigurationError{Message: "configuration not found"}
	}
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	return config.Normalize(e.defaults), nil
}
