package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pollku_backend/internals/configs"
	txController "pollku_backend/internals/features/payments/transactions/controller"
	txRepository "pollku_backend/internals/features/payments/transactions/repository"
	txRoute "pollku_backend/internals/features/payments/transactions/route"
	txService "pollku_backend/internals/features/payments/transactions/service"
	ppController "pollku_backend/internals/features/promotions/promoted_polls/controller"
	ppRepository "pollku_backend/internals/features/promotions/promoted_polls/repository"
	ppRoute "pollku_backend/internals/features/promotions/promoted_polls/route"
	ppService "pollku_backend/internals/features/promotions/promoted_polls/service"
	"pollku_backend/internals/helpers/events"
)

// Deps dibangun sekali di main lalu dipakai semua route.
type Deps struct {
	DB        *gorm.DB
	Payments  configs.PaymentConfig
	Snap      txService.SnapCreator // nil → metode midtrans nonaktif
	Guard     txService.DeliveryGuard
	Publisher events.Publisher
}

type Controllers struct {
	Webhook      *txController.WebhookController
	Payment      *txController.PaymentController
	PromotedPoll *ppController.PromotedPollController
}

func BuildControllers(d Deps) Controllers {
	txRepo := txRepository.NewTransactionRepository(d.DB)
	eventRepo := txRepository.NewGatewayEventRepository(d.DB)

	initiator := &txService.Initiator{
		Store:             txRepo,
		Snap:              d.Snap,
		PaystackPublicKey: d.Payments.PaystackPublicKey,
		DefaultCurrency:   d.Payments.DefaultCurrency,
	}
	settler := txService.NewSettler(txRepo, d.Publisher)
	refunder := &txService.Refunder{Store: txRepo, Publisher: d.Publisher}

	ppSvc := ppService.NewService(ppRepository.NewPromotedPollRepository(d.DB), initiator)

	return Controllers{
		Webhook:      txController.NewWebhookController(settler, eventRepo, d.Guard, d.Payments),
		Payment:      txController.NewPaymentController(initiator, refunder, txRepo, eventRepo),
		PromotedPoll: ppController.NewPromotedPollController(ppSvc),
	}
}

func PaymentWebhookRoutes(r fiber.Router, ctl Controllers) {
	txRoute.PaymentWebhookRoutes(r, ctl.Webhook)
}

func PaymentUserRoutes(r fiber.Router, ctl Controllers, limiter fiber.Handler) {
	txRoute.PaymentUserRoutes(r, ctl.Payment, limiter)
	ppRoute.PromotedPollUserRoutes(r, ctl.PromotedPoll, limiter)
}

func PaymentAdminRoutes(r fiber.Router, ctl Controllers) {
	txRoute.PaymentAdminRoutes(r, ctl.Payment)
	ppRoute.PromotedPollAdminRoutes(r, ctl.PromotedPoll)
}
