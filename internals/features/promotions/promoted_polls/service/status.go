package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	txmodel "pollku_backend/internals/features/payments/transactions/model"
	ppmodel "pollku_backend/internals/features/promotions/promoted_polls/model"
)

var (
	ErrInvalidTransition       = errors.New("invalid promoted poll status transition")
	ErrPaymentNotSettled       = errors.New("promoted poll is not paid yet")
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
)

var transitions = map[ppmodel.PromotedPollStatus][]ppmodel.PromotedPollStatus{
	ppmodel.StatusPendingApproval: {ppmodel.StatusActive, ppmodel.StatusRejected},
	ppmodel.StatusActive:          {ppmodel.StatusPaused, ppmodel.StatusCompleted},
	ppmodel.StatusPaused:          {ppmodel.StatusActive, ppmodel.StatusCompleted},
}

func CanTransition(from, to ppmodel.PromotedPollStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition memindahkan status poll (mutasi in-place). Tidak menyentuh DB.
func Transition(p *ppmodel.PromotedPoll, to ppmodel.PromotedPollStatus, reason string, now time.Time) error {
	from := p.PromotedPollStatus
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}

	switch to {
	case ppmodel.StatusActive:
		if p.PromotedPollPaymentStatus != txmodel.PollPaymentPaid {
			return fmt.Errorf("%w (payment_status=%s)", ErrPaymentNotSettled, p.PromotedPollPaymentStatus)
		}
		// approve pertama kali saja; resume dari paused tidak mengubah approved_at
		if p.PromotedPollApprovedAt == nil {
			p.PromotedPollApprovedAt = &now
		}
	case ppmodel.StatusRejected:
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return ErrRejectionReasonRequired
		}
		p.PromotedPollRejectionReason = &reason
	case ppmodel.StatusCompleted:
		p.PromotedPollCompletedAt = &now
	}

	p.PromotedPollStatus = to
	p.PromotedPollUpdatedAt = now
	return nil
}
