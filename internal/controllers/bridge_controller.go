package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowbaker/crmbridge/pkg/domain"
	"github.com/flowbaker/crmbridge/pkg/schema"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

const DefaultRequestTimeout = 30 * time.Second

type BridgeControllerDependencies struct {
	SyncService domain.SyncService
	// RequestTimeout is the deadline each inbound request hands to the sync engine.
	RequestTimeout time.Duration
	Now            func() time.Time
}

// BridgeController turns inbound CRM requests and issue tracker webhooks into sync commands.
type BridgeController struct {
	syncService    domain.SyncService
	requestTimeout time.Duration
	now            func() time.Time
}

func NewBridgeController(deps BridgeControllerDependencies) *BridgeController {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &BridgeController{
		syncService:    deps.SyncService,
		requestTimeout: timeout,
		now:            now,
	}
}

// HandleCRMRequest dispatches an action envelope sent by the CRM.
func (c *BridgeController) HandleCRMRequest(ctx fiber.Ctx) error {
	var req CRMRequest
	if err := schema.Decode(schema.CRMRequest, ctx.Body(), &req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(CRMResponse{Error: "Invalid request body"})
	}

	switch req.Action {
	case ActionCreateIssue:
		return c.createIssue(ctx, req.Data)
	default:
		log.Warn().Str("action", req.Action).Msg("Unknown CRM action")

		return ctx.Status(fiber.StatusBadRequest).JSON(CRMResponse{
			Error: fmt.Sprintf("Unknown action: %s", req.Action),
		})
	}
}

func (c *BridgeController) createIssue(ctx fiber.Ctx, data json.RawMessage) error {
	var createReq domain.CreateIssueRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &createReq); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(CRMResponse{Error: "Invalid issue data"})
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx.RequestCtx(), c.requestTimeout)
	defer cancel()

	result, err := c.syncService.ForwardCreate(reqCtx, createReq)
	if err != nil {
		log.Error().
			Err(err).
			Str("record_id", createReq.RecordID).
			Msg("Failed to create issue")

		return ctx.Status(statusForError(err)).JSON(CRMResponse{
			IssueKey: result.IssueKey,
			IssueURL: result.IssueURL,
			Error:    err.Error(),
		})
	}

	return ctx.JSON(CRMResponse{
		Success:  true,
		IssueKey: result.IssueKey,
		IssueURL: result.IssueURL,
	})
}

// HandleIssueWebhook mirrors an issue change into the CRM. Any failure after validation
// answers 500 so the sender redelivers.
func (c *BridgeController) HandleIssueWebhook(ctx fiber.Ctx) error {
	var webhook IssueWebhook
	if err := schema.Decode(schema.IssueWebhook, ctx.Body(), &webhook); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid webhook payload")
	}

	event := webhook.ToEvent(c.now())

	log.Info().
		Str("issue_key", event.IssueKey).
		Str("webhook_event", webhook.WebhookEvent).
		Msg("Issue update received")

	reqCtx, cancel := context.WithTimeout(ctx.RequestCtx(), c.requestTimeout)
	defer cancel()

	if err := c.syncService.ReverseSync(reqCtx, event); err != nil {
		log.Error().Err(err).Str("issue_key", event.IssueKey).Msg("Failed to sync issue update")

		status := fiber.StatusInternalServerError
		if statusForError(err) == fiber.StatusBadRequest {
			status = fiber.StatusBadRequest
		}

		return fiber.NewError(status, err.Error())
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}
