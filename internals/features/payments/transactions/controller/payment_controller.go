package controller

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pollku_backend/internals/features/payments/transactions/dto"
	"pollku_backend/internals/features/payments/transactions/model"
	"pollku_backend/internals/features/payments/transactions/repository"
	"pollku_backend/internals/features/payments/transactions/service"
	helper "pollku_backend/internals/helpers"
)

type paymentStarter interface {
	Start(ctx context.Context, in service.InitiateInput) (*model.Transaction, service.Checkout, error)
}

type paymentRefunder interface {
	Refund(ctx context.Context, in service.RefundInput) (*model.Transaction, error)
}

type transactionReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, f repository.ListFilter) ([]model.Transaction, int64, error)
}

type gatewayEventReader interface {
	List(ctx context.Context, f repository.GatewayEventFilter) ([]model.GatewayEvent, int64, error)
}

/* =======================================================================
   Controller
======================================================================= */

type PaymentController struct {
	Initiator    paymentStarter
	Refunder     paymentRefunder
	Transactions transactionReader
	Events       gatewayEventReader
	Validator    *validator.Validate
}

func NewPaymentController(initiator paymentStarter, refunder paymentRefunder, txs transactionReader, events gatewayEventReader) *PaymentController {
	return &PaymentController{
		Initiator:    initiator,
		Refunder:     refunder,
		Transactions: txs,
		Events:       events,
		Validator:    validator.New(),
	}
}

/* =======================================================================
   User handlers
======================================================================= */

// POST /api/u/payments
func (h *PaymentController) CreatePayment(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	req.Normalize()
	if err := h.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	if err := req.Validate(); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	t, co, err := h.Initiator.Start(c.UserContext(), req.ToInput(userID))
	if err != nil {
		return paymentError(c, err)
	}
	return helper.JsonCreated(c, "payment initiated", dto.PaymentCreatedResponse{
		Transaction: dto.FromModel(t),
		Checkout:    co,
	})
}

// GET /api/u/payments?status=&provider=&page=&per_page=
func (h *PaymentController) ListMyPayments(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	pg := helper.ResolvePaging(c, 20, 100)

	rows, total, err := h.Transactions.List(c.UserContext(), repository.ListFilter{
		UserID:   &userID,
		Status:   c.Query("status"),
		Provider: c.Query("provider"),
		Offset:   pg.Offset,
		Limit:    pg.Limit,
	})
	if err != nil {
		return paymentError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage))
}

// GET /api/u/payments/:id
func (h *PaymentController) GetMyPayment(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	t, err := h.Transactions.FindByID(c.UserContext(), id)
	if err != nil {
		return paymentError(c, err)
	}
	// transaksi user lain diperlakukan seperti tidak ada
	if t.TransactionUserID != userID && helper.GetRoleFromToken(c) != "admin" {
		return helper.JsonError(c, fiber.StatusNotFound, model.ErrTransactionNotFound.Error())
	}
	return helper.JsonOK(c, "ok", dto.FromModel(t))
}

/* =======================================================================
   Admin handlers
======================================================================= */

// PATCH /api/a/payments/:id/refund
func (h *PaymentController) RefundPayment(c *fiber.Ctx) error {
	adminID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if err := h.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	t, err := h.Refunder.Refund(c.UserContext(), service.RefundInput{
		TransactionID: id,
		AdminID:       adminID,
		Reason:        req.Reason,
	})
	if err != nil {
		return paymentError(c, err)
	}
	log.Printf("[INFO] transaksi %s di-refund oleh admin %s", t.TransactionID, adminID)
	return helper.JsonUpdated(c, "payment refunded", dto.FromModel(t))
}

// GET /api/a/payments
func (h *PaymentController) ListPayments(c *fiber.Ctx) error {
	pg := helper.ResolvePaging(c, 20, 200)
	f := repository.ListFilter{
		Status:   c.Query("status"),
		Provider: c.Query("provider"),
		Offset:   pg.Offset,
		Limit:    pg.Limit,
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		uid, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid user_id")
		}
		f.UserID = &uid
	}

	rows, total, err := h.Transactions.List(c.UserContext(), f)
	if err != nil {
		return paymentError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage))
}

// GET /api/a/payments/gateway-events?provider=&status=&reference=
func (h *PaymentController) ListGatewayEvents(c *fiber.Ctx) error {
	pg := helper.ResolvePaging(c, 50, 200)
	rows, total, err := h.Events.List(c.UserContext(), repository.GatewayEventFilter{
		Provider:  c.Query("provider"),
		Status:    c.Query("status"),
		Reference: c.Query("reference"),
		Offset:    pg.Offset,
		Limit:     pg.Limit,
	})
	if err != nil {
		return paymentError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage))
}

/* =======================================================================
   Error mapping
======================================================================= */

func paymentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, model.ErrTransactionNotFound), errors.Is(err, model.ErrPollNotFound), errors.Is(err, model.ErrWalletNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrInsufficientBalance):
		return helper.JsonError(c, fiber.StatusPaymentRequired, err.Error())
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrUnsupportedMethod):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotRefundable):
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrGatewayUnavailable):
		return helper.JsonError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrGateway):
		return helper.JsonError(c, fiber.StatusBadGateway, err.Error())
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return helper.JsonError(c, fe.Code, fe.Message)
	}
	status, msg := helper.MapPGError(err)
	if status >= fiber.StatusInternalServerError {
		log.Printf("[ERROR] payment: %v", err)
	}
	return helper.JsonError(c, status, msg)
}
