package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	txdto "pollku_backend/internals/features/payments/transactions/dto"
	txservice "pollku_backend/internals/features/payments/transactions/service"
	ppmodel "pollku_backend/internals/features/promotions/promoted_polls/model"
	ppservice "pollku_backend/internals/features/promotions/promoted_polls/service"
)

/* =========================================================
   REQUEST DTOs
========================================================= */

// POST /api/u/promoted-polls
type CreatePromotedPollRequest struct {
	PollID      uuid.UUID            `json:"poll_id" validate:"required"`
	Budget      decimal.Decimal      `json:"budget"`
	CostPerVote decimal.Decimal      `json:"cost_per_vote"`
	Currency    string               `json:"currency" validate:"omitempty,len=3,alpha"`
	Method      string               `json:"method" validate:"required,oneof=paystack midtrans wallet"`
	Customer    *txdto.CustomerInput `json:"customer,omitempty"`
}

func (r *CreatePromotedPollRequest) Normalize() {
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	r.Method = strings.ToLower(strings.TrimSpace(r.Method))
}

func (r *CreatePromotedPollRequest) Validate() error {
	if r.PollID == uuid.Nil {
		return errors.New("poll_id wajib diisi")
	}
	if !r.Budget.IsPositive() || !r.CostPerVote.IsPositive() {
		return errors.New("budget dan cost_per_vote harus > 0")
	}
	if r.CostPerVote.GreaterThan(r.Budget) {
		return errors.New("cost_per_vote tidak boleh melebihi budget")
	}
	if r.Method == txservice.MethodMidtrans && r.Customer == nil {
		return errors.New("customer wajib diisi untuk metode midtrans")
	}
	return nil
}

func (r *CreatePromotedPollRequest) ToInput(userID uuid.UUID) ppservice.CreateInput {
	return ppservice.CreateInput{
		PollID:        r.PollID,
		SponsorUserID: userID,
		Budget:        r.Budget,
		CostPerVote:   r.CostPerVote,
		Currency:      r.Currency,
		Method:        r.Method,
		Customer:      r.Customer.ToService(),
	}
}

// POST /api/u/promoted-polls/:id/retry-payment
type RetryPaymentRequest struct {
	Method   string               `json:"method" validate:"required,oneof=paystack midtrans wallet"`
	Customer *txdto.CustomerInput `json:"customer,omitempty"`
}

func (r *RetryPaymentRequest) ToInput() ppservice.PaymentInput {
	return ppservice.PaymentInput{
		Method:   strings.ToLower(strings.TrimSpace(r.Method)),
		Customer: r.Customer.ToService(),
	}
}

// PATCH /api/a/promoted-polls/:id/status
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active rejected paused completed"`
	Reason string `json:"reason" validate:"omitempty,max=300"`
}

func (r *ChangeStatusRequest) Target() ppmodel.PromotedPollStatus {
	return ppmodel.PromotedPollStatus(strings.ToLower(strings.TrimSpace(r.Status)))
}

/* =========================================================
   RESPONSE DTOs
========================================================= */

type PromotedPollResponse struct {
	PromotedPollID  uuid.UUID                  `json:"promoted_poll_id"`
	PollID          uuid.UUID                  `json:"poll_id"`
	SponsorUserID   uuid.UUID                  `json:"sponsor_user_id"`
	Budget          string                     `json:"budget"`
	CostPerVote     string                     `json:"cost_per_vote"`
	Currency        string                     `json:"currency"`
	TargetVotes     int                        `json:"target_votes"`
	VotesReceived   int                        `json:"votes_received"`
	Spent           string                     `json:"spent"`
	RemainingBudget string                     `json:"remaining_budget"`
	Status          ppmodel.PromotedPollStatus `json:"status"`
	PaymentStatus   string                     `json:"payment_status"`
	TransactionID   *uuid.UUID                 `json:"transaction_id,omitempty"`
	RejectionReason *string                    `json:"rejection_reason,omitempty"`
	ApprovedAt      *time.Time                 `json:"approved_at,omitempty"`
	CompletedAt     *time.Time                 `json:"completed_at,omitempty"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

func FromModel(p *ppmodel.PromotedPoll) PromotedPollResponse {
	return PromotedPollResponse{
		PromotedPollID:  p.PromotedPollID,
		PollID:          p.PromotedPollPollID,
		SponsorUserID:   p.PromotedPollSponsorUserID,
		Budget:          p.PromotedPollBudget.StringFixed(2),
		CostPerVote:     p.PromotedPollCostPerVote.StringFixed(2),
		Currency:        p.PromotedPollCurrency,
		TargetVotes:     p.PromotedPollTargetVotes,
		VotesReceived:   p.PromotedPollVotesReceived,
		Spent:           p.PromotedPollSpent.StringFixed(2),
		RemainingBudget: p.RemainingBudget().StringFixed(2),
		Status:          p.PromotedPollStatus,
		PaymentStatus:   p.PromotedPollPaymentStatus,
		TransactionID:   p.PromotedPollTransactionID,
		RejectionReason: p.PromotedPollRejectionReason,
		ApprovedAt:      p.PromotedPollApprovedAt,
		CompletedAt:     p.PromotedPollCompletedAt,
		CreatedAt:       p.PromotedPollCreatedAt,
		UpdatedAt:       p.PromotedPollUpdatedAt,
	}
}

func FromModels(rows []ppmodel.PromotedPoll) []PromotedPollResponse {
	out := make([]PromotedPollResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

type PromotedPollCreatedResponse struct {
	PromotedPoll PromotedPollResponse       `json:"promoted_poll"`
	Transaction  *txdto.TransactionResponse `json:"transaction,omitempty"`
	Checkout     *txservice.Checkout        `json:"checkout,omitempty"`
}

func FromCreateResult(res ppservice.CreateResult) PromotedPollCreatedResponse {
	out := PromotedPollCreatedResponse{
		PromotedPoll: FromModel(res.Poll),
		Checkout:     res.Checkout,
	}
	if res.Transaction != nil {
		t := txdto.FromModel(res.Transaction)
		out.Transaction = &t
	}
	return out
}
