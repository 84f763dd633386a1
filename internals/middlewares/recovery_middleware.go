package middlewares

import (
	"log"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var panicsRecovered = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pollku",
		Subsystem: "http",
		Name:      "panics_recovered_total",
		Help:      "Handler panics recovered, by route.",
	},
	[]string{"route"},
)

// RecoveryMiddleware menangkap panic → 500 (lewat ErrorHandler), stack trace di-log bersama request id.
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			route := c.Route().Path
			if route == "" {
				route = "unmatched"
			}
			panicsRecovered.WithLabelValues(route).Inc()

			rid, _ := c.Locals("request_id").(string)
			log.Printf("[PANIC] %s %s (request_id=%s): %v\n%s", c.Method(), c.OriginalURL(), rid, e, debug.Stack())
		},
	})
}
