package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"pollku_backend/internals/middlewares/logger"
)

// SetupMiddlewares memasang middleware global (urutan penting: recover paling luar).
func SetupMiddlewares(app *fiber.App, requestTimeout time.Duration) {
	app.Use(RecoveryMiddleware())
	app.Use(RequestID(requestTimeout))
	app.Use(logger.LoggerMiddleware())
	app.Use(Metrics())
	app.Use(CorsMiddleware())
	app.Use(GlobalRateLimiter())
}
