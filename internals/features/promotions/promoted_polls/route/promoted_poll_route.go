package route

import (
	"github.com/gofiber/fiber/v2"

	ppController "pollku_backend/internals/features/promotions/promoted_polls/controller"
)

// User: /api/u/promoted-polls
func PromotedPollUserRoutes(r fiber.Router, ctl *ppController.PromotedPollController, createMw ...fiber.Handler) {
	pp := r.Group("/promoted-polls")
	pp.Post("/", append(createMw[:len(createMw):len(createMw)], ctl.Create)...)
	pp.Get("/", ctl.ListMine)
	pp.Post("/:id/retry-payment", append(createMw[:len(createMw):len(createMw)], ctl.RetryPayment)...)
	pp.Post("/:id/votes", ctl.RecordVote)
}

// Admin: /api/a/promoted-polls
func PromotedPollAdminRoutes(r fiber.Router, ctl *ppController.PromotedPollController) {
	pp := r.Group("/promoted-polls")
	pp.Get("/", ctl.ListAll)
	pp.Patch("/:id/status", ctl.ChangeStatus)
}
