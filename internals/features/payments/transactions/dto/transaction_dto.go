package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pollku_backend/internals/features/payments/transactions/model"
	"pollku_backend/internals/features/payments/transactions/service"
)

/* =========================================================
   REQUEST DTOs
========================================================= */

// CreatePaymentRequest: POST /api/u/payments
type CreatePaymentRequest struct {
	PromotedPollID *uuid.UUID      `json:"promoted_poll_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" validate:"omitempty,len=3,alpha"`
	Method         string          `json:"method" validate:"required,oneof=paystack midtrans wallet"`
	Description    string          `json:"description" validate:"omitempty,max=200"`
	Customer       *CustomerInput  `json:"customer,omitempty"`
}

type CustomerInput struct {
	FirstName string `json:"first_name" validate:"omitempty,max=60"`
	LastName  string `json:"last_name" validate:"omitempty,max=60"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
}

func (r *CreatePaymentRequest) Normalize() {
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	r.Method = strings.ToLower(strings.TrimSpace(r.Method))
	r.Description = strings.TrimSpace(r.Description)
}

// Validate: aturan bisnis yang tidak bisa dinyatakan lewat tag validator.
func (r *CreatePaymentRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return errors.New("amount harus > 0")
	}
	if r.Amount.Exponent() < -2 {
		return errors.New("amount maksimal 2 digit desimal")
	}
	if r.Method == service.MethodMidtrans && r.Customer == nil {
		return errors.New("customer wajib diisi untuk metode midtrans")
	}
	return nil
}

func (r *CreatePaymentRequest) ToInput(userID uuid.UUID) service.InitiateInput {
	in := service.InitiateInput{
		UserID:         userID,
		PromotedPollID: r.PromotedPollID,
		Amount:         r.Amount,
		Currency:       r.Currency,
		Method:         r.Method,
		Description:    r.Description,
	}
	if r.Customer != nil {
		in.Customer = r.Customer.ToService()
	}
	return in
}

func (c *CustomerInput) ToService() service.CustomerInput {
	if c == nil {
		return service.CustomerInput{}
	}
	return service.CustomerInput{
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Email:     strings.TrimSpace(c.Email),
		Phone:     strings.TrimSpace(c.Phone),
	}
}

// RefundRequest: PATCH /api/a/payments/:id/refund
type RefundRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=300"`
}

/* =========================================================
   RESPONSE DTOs
========================================================= */

type TransactionResponse struct {
	TransactionID        uuid.UUID               `json:"transaction_id"`
	UserID               uuid.UUID               `json:"user_id"`
	PromotedPollID       *uuid.UUID              `json:"promoted_poll_id,omitempty"`
	Amount               string                  `json:"amount"`
	Currency             string                  `json:"currency"`
	PaymentMethod        string                  `json:"payment_method"`
	GatewayProvider      string                  `json:"gateway_provider"`
	GatewayTransactionID string                  `json:"gateway_transaction_id"`
	Status               model.TransactionStatus `json:"status"`
	Metadata             map[string]interface{}  `json:"metadata,omitempty"`
	CompletedAt          *time.Time              `json:"completed_at,omitempty"`
	FailedAt             *time.Time              `json:"failed_at,omitempty"`
	RefundedAt           *time.Time              `json:"refunded_at,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
}

func FromModel(t *model.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:        t.TransactionID,
		UserID:               t.TransactionUserID,
		PromotedPollID:       t.TransactionPromotedPollID,
		Amount:               t.TransactionAmount.StringFixed(2),
		Currency:             t.TransactionCurrency,
		PaymentMethod:        t.TransactionPaymentMethod,
		GatewayProvider:      t.TransactionGatewayProvider,
		GatewayTransactionID: t.TransactionGatewayTransactionID,
		Status:               t.TransactionStatus,
		Metadata:             publicMetadata(t.TransactionMetadata),
		CompletedAt:          t.TransactionCompletedAt,
		FailedAt:             t.TransactionFailedAt,
		RefundedAt:           t.TransactionRefundedAt,
		CreatedAt:            t.TransactionCreatedAt,
		UpdatedAt:            t.TransactionUpdatedAt,
	}
}

func FromModels(rows []model.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

// snap_token jangan bocor di list/detail (hanya dikirim saat checkout)
func publicMetadata(m map[string]interface{}) map[string]interface{} {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k == "snap_token" {
			continue
		}
		out[k] = v
	}
	return out
}

type PaymentCreatedResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Checkout    service.Checkout    `json:"checkout"`
}
