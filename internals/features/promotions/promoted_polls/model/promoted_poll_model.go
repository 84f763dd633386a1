package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */

type PromotedPollStatus string

const (
	StatusPendingApproval PromotedPollStatus = "pending_approval"
	StatusActive          PromotedPollStatus = "active"
	StatusRejected        PromotedPollStatus = "rejected"
	StatusPaused          PromotedPollStatus = "paused"
	StatusCompleted       PromotedPollStatus = "completed"
)

func (s PromotedPollStatus) Valid() bool {
	switch s {
	case StatusPendingApproval, StatusActive, StatusRejected, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

/* ===================== Model ===================== */

/*
promoted_polls = kampanye promosi poll berbayar.
  - budget dibayar di depan lewat transaksi (payment_status didenormalisasi dari transaksi)
  - tiap vote memotong cost_per_vote dari budget
*/
type PromotedPoll struct {
	PromotedPollID            uuid.UUID `gorm:"column:promoted_poll_id;type:uuid;default:gen_random_uuid();primaryKey" json:"promoted_poll_id"`
	PromotedPollPollID        uuid.UUID `gorm:"column:promoted_poll_poll_id;type:uuid;not null;index" json:"promoted_poll_poll_id"`
	PromotedPollSponsorUserID uuid.UUID `gorm:"column:promoted_poll_sponsor_user_id;type:uuid;not null;index" json:"promoted_poll_sponsor_user_id"`

	PromotedPollBudget      decimal.Decimal `gorm:"column:promoted_poll_budget;type:numeric(14,2);not null" json:"promoted_poll_budget"`
	PromotedPollCostPerVote decimal.Decimal `gorm:"column:promoted_poll_cost_per_vote;type:numeric(14,2);not null" json:"promoted_poll_cost_per_vote"`
	PromotedPollCurrency    string          `gorm:"column:promoted_poll_currency;type:varchar(8);not null" json:"promoted_poll_currency"`

	PromotedPollTargetVotes   int             `gorm:"column:promoted_poll_target_votes;not null" json:"promoted_poll_target_votes"`
	PromotedPollVotesReceived int             `gorm:"column:promoted_poll_votes_received;not null;default:0" json:"promoted_poll_votes_received"`
	PromotedPollSpent         decimal.Decimal `gorm:"column:promoted_poll_spent;type:numeric(14,2);not null;default:0" json:"promoted_poll_spent"`

	PromotedPollStatus        PromotedPollStatus `gorm:"column:promoted_poll_status;type:varchar(24);not null;default:'pending_approval';index" json:"promoted_poll_status"`
	PromotedPollPaymentStatus string             `gorm:"column:promoted_poll_payment_status;type:varchar(16);not null;default:'pending';index" json:"promoted_poll_payment_status"`
	PromotedPollTransactionID *uuid.UUID         `gorm:"column:promoted_poll_transaction_id;type:uuid;index" json:"promoted_poll_transaction_id,omitempty"`

	PromotedPollRejectionReason *string    `gorm:"column:promoted_poll_rejection_reason" json:"promoted_poll_rejection_reason,omitempty"`
	PromotedPollApprovedAt      *time.Time `gorm:"column:promoted_poll_approved_at" json:"promoted_poll_approved_at,omitempty"`
	PromotedPollCompletedAt     *time.Time `gorm:"column:promoted_poll_completed_at" json:"promoted_poll_completed_at,omitempty"`

	PromotedPollCreatedAt time.Time      `gorm:"column:promoted_poll_created_at;autoCreateTime" json:"promoted_poll_created_at"`
	PromotedPollUpdatedAt time.Time      `gorm:"column:promoted_poll_updated_at;autoUpdateTime" json:"promoted_poll_updated_at"`
	PromotedPollDeletedAt gorm.DeletedAt `gorm:"column:promoted_poll_deleted_at;index" json:"-"`
}

func (PromotedPoll) TableName() string { return "promoted_polls" }

// RemainingBudget = budget - spent (tidak pernah negatif).
func (p *PromotedPoll) RemainingBudget() decimal.Decimal {
	r := p.PromotedPollBudget.Sub(p.PromotedPollSpent)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}
