package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

/* ===================== Enums (string) ===================== */

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

const (
	PaymentMethodGateway      = "gateway"
	PaymentMethodCard         = "card"
	PaymentMethodWallet       = "wallet"
	PaymentMethodBankTransfer = "bank_transfer"
)

const (
	ProviderPaystack = "paystack"
	ProviderMidtrans = "midtrans"
	ProviderWallet   = "wallet"
)

// Nilai kolom promoted_polls.promoted_poll_payment_status (didenormalisasi dari transaksi).
const (
	PollPaymentPending  = "pending"
	PollPaymentPaid     = "paid"
	PollPaymentFailed   = "failed"
	PollPaymentRefunded = "refunded"
)

/* ===================== Model ===================== */

type Transaction struct {
	TransactionID uuid.UUID `gorm:"column:transaction_id;type:uuid;default:gen_random_uuid();primaryKey" json:"transaction_id"`

	TransactionUserID         uuid.UUID  `gorm:"column:transaction_user_id;type:uuid;not null;index" json:"transaction_user_id"`
	TransactionPromotedPollID *uuid.UUID `gorm:"column:transaction_promoted_poll_id;type:uuid;index" json:"transaction_promoted_poll_id,omitempty"`

	TransactionAmount   decimal.Decimal `gorm:"column:transaction_amount;type:numeric(14,2);not null" json:"transaction_amount"`
	TransactionCurrency string          `gorm:"column:transaction_currency;type:varchar(8);not null" json:"transaction_currency"`

	TransactionPaymentMethod   string `gorm:"column:transaction_payment_method;type:varchar(24);not null" json:"transaction_payment_method"`
	TransactionGatewayProvider string `gorm:"column:transaction_gateway_provider;type:varchar(24);not null;uniqueIndex:uq_transactions_provider_ref,priority:1" json:"transaction_gateway_provider"`
	// reference dari gateway; satu-satunya kunci korelasi webhook → transaksi
	TransactionGatewayTransactionID string `gorm:"column:transaction_gateway_transaction_id;type:varchar(128);not null;uniqueIndex:uq_transactions_provider_ref,priority:2" json:"gateway_transaction_id"`

	TransactionStatus   TransactionStatus `gorm:"column:transaction_status;type:varchar(16);not null;default:'pending';index" json:"transaction_status"`
	TransactionMetadata datatypes.JSONMap `gorm:"column:transaction_metadata;type:jsonb" json:"transaction_metadata,omitempty"`

	TransactionCompletedAt *time.Time `gorm:"column:transaction_completed_at" json:"transaction_completed_at,omitempty"`
	TransactionFailedAt    *time.Time `gorm:"column:transaction_failed_at" json:"transaction_failed_at,omitempty"`
	TransactionRefundedAt  *time.Time `gorm:"column:transaction_refunded_at" json:"transaction_refunded_at,omitempty"`

	TransactionCreatedAt time.Time `gorm:"column:transaction_created_at;autoCreateTime" json:"transaction_created_at"`
	TransactionUpdatedAt time.Time `gorm:"column:transaction_updated_at;autoUpdateTime" json:"transaction_updated_at"`
}

func (Transaction) TableName() string { return "transactions" }

/* ===================== Helpers ===================== */

func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusRefunded:
		return true
	default:
		return false
	}
}

func (t *Transaction) IsPending() bool {
	return t.TransactionStatus == TransactionStatusPending
}

// PollPaymentStatusFor memetakan status transaksi ke payment_status promoted poll.
func PollPaymentStatusFor(s TransactionStatus) string {
	switch s {
	case TransactionStatusCompleted:
		return PollPaymentPaid
	case TransactionStatusFailed:
		return PollPaymentFailed
	case TransactionStatusRefunded:
		return PollPaymentRefunded
	default:
		return PollPaymentPending
	}
}

// MergeMetadata: key di patch menimpa, key lain di base dibiarkan. base tidak dimutasi.
func MergeMetadata(base, patch map[string]interface{}) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
