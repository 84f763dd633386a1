package middlewares

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/utils"
)

type ctxKey string

const RequestIDKey ctxKey = "request_id"

// RequestID: pakai X-Request-ID dari client kalau ada, kalau tidak generate.
// UserContext diberi timeout supaya query DB ikut batal saat request terlalu lama.
func RequestID(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(fiber.HeaderXRequestID)
		if rid == "" {
			rid = utils.UUID()
		}
		c.Set(fiber.HeaderXRequestID, rid)
		c.Locals("request_id", rid)

		ctx, cancel := context.WithTimeout(context.WithValue(c.UserContext(), RequestIDKey, rid), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
