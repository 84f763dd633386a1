package logger

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"pollku_backend/internals/configs"
)

// path yang di-hit terus oleh prometheus / load balancer, tidak perlu masuk access log
var quietPaths = map[string]bool{
	"/metrics": true,
	"/health":  true,
}

// LoggerMiddleware: access log per request (request id & user id dari Locals).
func LoggerMiddleware() fiber.Handler {
	return logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			return quietPaths[c.Path()]
		},
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   configs.GetEnv("LOG_TIMEZONE", "Africa/Lagos"),
		Format:     "[${time}] ${ip} - ${locals:request_id} - ${locals:user_id} - ${method} ${path} - ${status} - ${latency}\n",
	})
}
