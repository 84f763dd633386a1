package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"pollku_backend/internals/features/payments/transactions/model"
	"pollku_backend/internals/features/payments/transactions/service"
)

// POST /api/webhooks/midtrans
// Signature midtrans ada di body, jadi body di-parse dulu baru diverifikasi.
func (h *WebhookController) Midtrans(c *fiber.Ctx) error {
	const provider = model.ProviderMidtrans
	ctx := c.UserContext()

	raw := append([]byte(nil), c.Body()...)
	notif, perr := service.ParseMidtransNotification(raw)
	evID := h.record(c, provider, raw, notif.SignatureKey, notif.TransactionStatus, notif.OrderID)

	if perr != nil {
		log.Printf("[WEBHOOK][WARN] midtrans: payload tidak valid: %v", perr)
		h.finish(ctx, evID, model.GatewayEventOutcome{Status: model.GatewayEventStatusRejected, Error: perr.Error()})
		service.ObserveWebhook(provider, service.OutcomeMalformed)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": perr.Error()})
	}

	if !notif.VerifySignature(h.Config.MidtransServerKey) {
		log.Printf("[WEBHOOK][WARN] midtrans: signature tidak valid order_id=%s (ip=%s)", notif.OrderID, c.IP())
		h.finish(ctx, evID, model.GatewayEventOutcome{Status: model.GatewayEventStatusRejected, Error: service.ErrInvalidSignature.Error()})
		service.ObserveWebhook(provider, service.OutcomeRejected)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": service.ErrInvalidSignature.Error()})
	}

	key := service.DeliveryKey(provider, raw)
	if h.duplicate(ctx, key) {
		h.finish(ctx, evID, model.GatewayEventOutcome{Status: model.GatewayEventStatusIgnored, Error: "duplicate delivery"})
		service.ObserveWebhook(provider, service.OutcomeDuplicate)
		return c.JSON(fiber.Map{"received": true})
	}

	return h.settle(c, provider, notif.ToWebhookEvent(), evID, key)
}
