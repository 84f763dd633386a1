// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"pollku_backend/internals/configs"
	"pollku_backend/internals/middlewares"
	authMiddleware "pollku_backend/internals/middlewares/auth"
	routeDetails "pollku_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, deps routeDetails.Deps) {
	startTime = time.Now()

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, deps)

	ctl := routeDetails.BuildControllers(deps)

	// ===================== WEBHOOK (signature, tanpa JWT) =====================
	log.Println("[INFO] Setting up WEBHOOK group...")
	webhooks := app.Group("/api/webhooks", middlewares.WebhookRateLimiter())

	// ===================== PRIVATE (USER) =====================
	log.Println("[INFO] Setting up PRIVATE (user) group...")
	private := app.Group("/api/u",
		authMiddleware.AuthJWT(configs.JWTSecret),
	)

	// ===================== ADMIN =====================
	log.Println("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group("/api/a",
		authMiddleware.AuthJWT(configs.JWTSecret),
		authMiddleware.RequireAdmin(),
	)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting Payment routes...")
	routeDetails.PaymentWebhookRoutes(webhooks, ctl)
	routeDetails.PaymentUserRoutes(private, ctl, middlewares.PaymentRateLimiter())
	routeDetails.PaymentAdminRoutes(admin, ctl)
}
