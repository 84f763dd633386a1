package route

import (
	"github.com/gofiber/fiber/v2"

	paymentController "pollku_backend/internals/features/payments/transactions/controller"
)

/*
Webhook gateway (tanpa JWT, autentikasi lewat signature).
Contoh mount: PaymentWebhookRoutes(app.Group("/api/webhooks", limiter), ctl)
  - POST /api/webhooks/paystack
  - POST /api/webhooks/midtrans
*/
func PaymentWebhookRoutes(r fiber.Router, ctl *paymentController.WebhookController) {
	r.Post("/paystack", ctl.Paystack)
	r.Post("/midtrans", ctl.Midtrans)
}

// User: /api/u/payments. createMw dipasang hanya di POST (mis. rate limiter).
func PaymentUserRoutes(r fiber.Router, ctl *paymentController.PaymentController, createMw ...fiber.Handler) {
	pay := r.Group("/payments")
	pay.Post("/", append(createMw[:len(createMw):len(createMw)], ctl.CreatePayment)...)
	pay.Get("/", ctl.ListMyPayments)
	pay.Get("/:id", ctl.GetMyPayment)
}

// Admin: /api/a/payments
func PaymentAdminRoutes(r fiber.Router, ctl *paymentController.PaymentController) {
	pay := r.Group("/payments")
	pay.Get("/", ctl.ListPayments)
	// didaftarkan sebelum "/:id" supaya tidak tertangkap sebagai id
	pay.Get("/gateway-events", ctl.ListGatewayEvents)
	pay.Patch("/:id/refund", ctl.RefundPayment)
}
