package controller

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	txmodel "pollku_backend/internals/features/payments/transactions/model"
	txservice "pollku_backend/internals/features/payments/transactions/service"
	"pollku_backend/internals/features/promotions/promoted_polls/dto"
	ppmodel "pollku_backend/internals/features/promotions/promoted_polls/model"
	ppservice "pollku_backend/internals/features/promotions/promoted_polls/service"
	helper "pollku_backend/internals/helpers"
)

type promotedPollService interface {
	Create(ctx context.Context, in ppservice.CreateInput) (ppservice.CreateResult, error)
	RetryPayment(ctx context.Context, pollID, userID uuid.UUID, in ppservice.PaymentInput) (ppservice.CreateResult, error)
	ChangeStatus(ctx context.Context, pollID uuid.UUID, to ppmodel.PromotedPollStatus, reason string) (*ppmodel.PromotedPoll, error)
	RecordVote(ctx context.Context, pollID uuid.UUID) (*ppmodel.PromotedPoll, error)
	List(ctx context.Context, f ppservice.ListFilter) ([]ppmodel.PromotedPoll, int64, error)
}

type PromotedPollController struct {
	Service   promotedPollService
	Validator *validator.Validate
}

func NewPromotedPollController(svc promotedPollService) *PromotedPollController {
	return &PromotedPollController{Service: svc, Validator: validator.New()}
}

/* =======================================================================
   User handlers
======================================================================= */

// POST /api/u/promoted-polls
func (h *PromotedPollController) Create(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req dto.CreatePromotedPollRequest
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

	res, err := h.Service.Create(c.UserContext(), req.ToInput(userID))
	if err != nil {
		return promotedPollError(c, err)
	}
	return helper.JsonCreated(c, "promoted poll created", dto.FromCreateResult(res))
}

// GET /api/u/promoted-polls
func (h *PromotedPollController) ListMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	pg := helper.ResolvePaging(c, 20, 100)
	rows, total, err := h.Service.List(c.UserContext(), ppservice.ListFilter{
		SponsorUserID: &userID,
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Offset:        pg.Offset,
		Limit:         pg.Limit,
	})
	if err != nil {
		return promotedPollError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage))
}

// POST /api/u/promoted-polls/:id/retry-payment
func (h *PromotedPollController) RetryPayment(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.RetryPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	req.Method = strings.ToLower(strings.TrimSpace(req.Method))
	if err := h.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	res, err := h.Service.RetryPayment(c.UserContext(), id, userID, req.ToInput())
	if err != nil {
		return promotedPollError(c, err)
	}
	return helper.JsonCreated(c, "payment initiated", dto.FromCreateResult(res))
}

// POST /api/u/promoted-polls/:id/votes
func (h *PromotedPollController) RecordVote(c *fiber.Ctx) error {
	if _, err := helper.GetUserIDFromToken(c); err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	p, err := h.Service.RecordVote(c.UserContext(), id)
	if err != nil {
		return promotedPollError(c, err)
	}
	return helper.JsonOK(c, "vote recorded", dto.FromModel(p))
}

/* =======================================================================
   Admin handlers
======================================================================= */

// GET /api/a/promoted-polls?status=&payment_status=&sponsor_user_id=
func (h *PromotedPollController) ListAll(c *fiber.Ctx) error {
	pg := helper.ResolvePaging(c, 20, 200)
	f := ppservice.ListFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Offset:        pg.Offset,
		Limit:         pg.Limit,
	}
	if raw := strings.TrimSpace(c.Query("sponsor_user_id")); raw != "" {
		uid, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid sponsor_user_id")
		}
		f.SponsorUserID = &uid
	}

	rows, total, err := h.Service.List(c.UserContext(), f)
	if err != nil {
		return promotedPollError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage))
}

// PATCH /api/a/promoted-polls/:id/status
func (h *PromotedPollController) ChangeStatus(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := h.Validator.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	p, err := h.Service.ChangeStatus(c.UserContext(), id, req.Target(), req.Reason)
	if err != nil {
		return promotedPollError(c, err)
	}
	return helper.JsonUpdated(c, "status updated", dto.FromModel(p))
}

/* =======================================================================
   Error mapping
======================================================================= */

func promotedPollError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, txmodel.ErrPollNotFound), errors.Is(err, ppservice.ErrNotOwner):
		return helper.JsonError(c, fiber.StatusNotFound, txmodel.ErrPollNotFound.Error())
	case errors.Is(err, ppservice.ErrInvalidBudget), errors.Is(err, ppservice.ErrBudgetTooSmall),
		errors.Is(err, ppservice.ErrRejectionReasonRequired):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ppservice.ErrInvalidTransition), errors.Is(err, ppservice.ErrPaymentNotSettled),
		errors.Is(err, ppservice.ErrPollNotActive), errors.Is(err, ppservice.ErrBudgetExceeded),
		errors.Is(err, ppservice.ErrRetryNotAllowed):
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, txmodel.ErrInsufficientBalance):
		return helper.JsonError(c, fiber.StatusPaymentRequired, err.Error())
	case errors.Is(err, txservice.ErrInvalidAmount), errors.Is(err, txservice.ErrUnsupportedMethod):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, txservice.ErrGatewayUnavailable):
		return helper.JsonError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, txservice.ErrGateway):
		return helper.JsonError(c, fiber.StatusBadGateway, err.Error())
	}
	status, msg := helper.MapPGError(err)
	if status >= fiber.StatusInternalServerError {
		log.Printf("[ERROR] promoted poll: %v", err)
	}
	return helper.JsonError(c, status, msg)
}
