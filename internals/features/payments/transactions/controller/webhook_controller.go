package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"pollku_backend/internals/configs"
	"pollku_backend/internals/features/payments/transactions/model"
	"pollku_backend/internals/features/payments/transactions/service"
)

/* =======================================================================
   Dependencies
======================================================================= */

type settlementApplier interface {
	Apply(ctx context.Context, provider string, ev service.WebhookEvent) (service.SettlementResult, error)
}

type gatewayEventLog interface {
	Record(ctx context.Context, ev *model.GatewayEvent) error
	Finish(ctx context.Context, id uuid.UUID, out model.GatewayEventOutcome) error
}

type WebhookController struct {
	Settler settlementApplier
	Events  gatewayEventLog
	Guard   service.DeliveryGuard
	Config  configs.PaymentConfig
}

func NewWebhookController(settler settlementApplier, events gatewayEventLog, guard service.DeliveryGuard, cfg configs.PaymentConfig) *WebhookController {
	if guard == nil {
		guard = service.NopDeliveryGuard{}
	}
	return &WebhookController{Settler: settler, Events: events, Guard: guard, Config: cfg}
}

/* =======================================================================
   POST /api/webhooks/paystack
======================================================================= */

func (h *WebhookController) Paystack(c *fiber.Ctx) error {
	const provider = model.ProviderPaystack
	ctx := c.UserContext()

	// body mentah, sebelum parse apa pun
	raw := append([]byte(nil), c.Body()...)
	sig := c.Get(service.PaystackSignatureHeader)
	evID := h.record(c, provider, raw, sig, "", "")

	if !service.VerifySignature(raw, sig, h.Config.PaystackSecretKey) {
		log.Printf("[WEBHOOK][WARN] paystack: signature tidak valid (ip=%s, len=%d)", c.IP(), len(raw))
		h.finish(ctx, evID, model.GatewayEventOutcome{Status: model.GatewayEventStatusRejected, Error: service.ErrInvalidSignature.Error()})
		service.ObserveWebhook(provider, service.OutcomeRejected)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": service.ErrInvalidSignature.Error()})
	}

	key := service.DeliveryKey(provider, raw)
	if h.duplicate(ctx, key) {
		h.finish(ctx, evID, model.GatewayEventOutcome{Status: model.GatewayEventStatusIgnored, Error: "duplicate delivery"})
		service.ObserveWebhook(provider, service.OutcomeDuplicate)
		return c.JSON(fiber.Map{"received": true})
	}

	ev, err := service.ParseWebhookEvent(raw)
	if err != nil {
		log.Printf("[WEBHOOK][WARN] paystack: payload tidak valid: %v", err)
		h.finish(ctx, evID, model.GatewayEventOutcome{Status: model.GatewayEventStatusRejected, EventType: ev.Name, Error: err.Error()})
		service.ObserveWebhook(provider, service.OutcomeMalformed)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return h.settle(c, provider, ev, evID, key)
}

/* =======================================================================
   Shared: route → settle → respond
======================================================================= */

func (h *WebhookController) settle(c *fiber.Ctx, provider string, ev service.WebhookEvent, evID *uuid.UUID, key string) error {
	ctx := c.UserContext()
	out := model.GatewayEventOutcome{EventType: ev.Name, Reference: ev.Reference}

	if ev.Kind == service.EventUnknown {
		out.Status = model.GatewayEventStatusIgnored
		h.finish(ctx, evID, out)
		service.ObserveWebhook(provider, service.OutcomeUnknownEvent)
		return c.JSON(fiber.Map{"received": true})
	}

	res, err := h.Settler.Apply(ctx, provider, ev)
	switch {
	case errors.Is(err, model.ErrTransactionNotFound):
		log.Printf("[WEBHOOK][WARN] %s: transaksi ref=%s tidak ditemukan (event=%s)", provider, ev.Reference, ev.Name)
		out.Status = model.GatewayEventStatusFailed
		out.Error = model.ErrTransactionNotFound.Error()
		h.finish(ctx, evID, out)
		service.ObserveWebhook(provider, service.OutcomeNotFound)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": model.ErrTransactionNotFound.Error()})

	case err != nil:
		log.Printf("[WEBHOOK][ERROR] %s: settlement ref=%s gagal: %v", provider, ev.Reference, err)
		out.Status = model.GatewayEventStatusFailed
		out.Error = err.Error()
		h.finish(ctx, evID, out)
		service.ObserveWebhook(provider, service.OutcomeError)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update transaction"})
	}

	outcome := service.OutcomeProcessed
	out.Status = model.GatewayEventStatusProcessed
	switch {
	case res.Ignored:
		outcome = service.OutcomeIgnored
		out.Status = model.GatewayEventStatusIgnored
		out.Error = "transaction already " + string(res.Status)
	case !res.Changed:
		outcome = service.OutcomeReplayed
	}
	out.TransactionID = &res.TransactionID
	h.finish(ctx, evID, out)
	service.ObserveWebhook(provider, outcome)

	if err := h.Guard.Remember(ctx, key, h.Config.DeliveryTTL); err != nil {
		log.Printf("[WEBHOOK][WARN] %s: gagal simpan dedup key: %v", provider, err)
	}

	log.Printf("[WEBHOOK] %s %s ref=%s → transaksi %s %s (changed=%t, poll_synced=%t)",
		provider, ev.Name, ev.Reference, res.TransactionID, res.Status, res.Changed, res.PollSynced)
	return c.JSON(fiber.Map{"success": true})
}

/* =======================================================================
   Helpers: dedup & gateway event log
======================================================================= */

// duplicate: error redis tidak memblokir pemrosesan (settlement sendiri sudah idempotent).
func (h *WebhookController) duplicate(ctx context.Context, key string) bool {
	seen, err := h.Guard.Seen(ctx, key)
	if err != nil {
		log.Printf("[WEBHOOK][WARN] cek dedup gagal, lanjut proses: %v", err)
		return false
	}
	return seen
}

func (h *WebhookController) record(c *fiber.Ctx, provider string, raw []byte, sig, eventType, reference string) *uuid.UUID {
	if h.Events == nil {
		return nil
	}
	headers := map[string]string{}
	for k, v := range c.GetReqHeaders() { // v: []string
		headers[k] = strings.Join(v, ",")
	}
	headersJSON, _ := sonic.Marshal(headers)

	ev := &model.GatewayEvent{
		GatewayEventID:       uuid.New(),
		GatewayEventProvider: provider,
		GatewayEventHeaders:  datatypes.JSON(headersJSON),
		GatewayEventStatus:   model.GatewayEventStatusReceived,
	}
	if json.Valid(raw) {
		ev.GatewayEventPayload = datatypes.JSON(raw)
	}
	if sig != "" {
		ev.GatewayEventSignature = &sig
	}
	if eventType != "" {
		ev.GatewayEventType = &eventType
	}
	if reference != "" {
		ev.GatewayEventReference = &reference
	}

	if err := h.Events.Record(c.UserContext(), ev); err != nil {
		log.Printf("[WEBHOOK][WARN] %s: gagal mencatat gateway event: %v", provider, err)
		return nil
	}
	return &ev.GatewayEventID
}

func (h *WebhookController) finish(ctx context.Context, id *uuid.UUID, out model.GatewayEventOutcome) {
	if h.Events == nil || id == nil {
		return
	}
	if err := h.Events.Finish(ctx, *id, out); err != nil {
		log.Printf("[WEBHOOK][WARN] gagal update gateway event %s: %v", *id, err)
	}
}
