package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	txmodel "pollku_backend/internals/features/payments/transactions/model"
	txservice "pollku_backend/internals/features/payments/transactions/service"
	ppmodel "pollku_backend/internals/features/promotions/promoted_polls/model"
)

var (
	ErrNotOwner         = errors.New("promoted poll belongs to another sponsor")
	ErrRetryNotAllowed  = errors.New("payment retry is only allowed for unpaid polls awaiting approval")
	ErrPaymentInitiated = errors.New("promoted poll created but payment could not be started")
)

type PaymentStarter interface {
	Start(ctx context.Context, in txservice.InitiateInput) (*txmodel.Transaction, txservice.Checkout, error)
	// Supersede menutup transaksi pending lama; sudah settle → txmodel.ErrTransactionNotPending.
	Supersede(ctx context.Context, transactionID uuid.UUID) error
}

type Service struct {
	Store    Store
	Payments PaymentStarter
	Now      func() time.Time
}

func NewService(store Store, payments PaymentStarter) *Service {
	return &Service{Store: store, Payments: payments, Now: time.Now}
}

type CreateInput struct {
	PollID        uuid.UUID
	SponsorUserID uuid.UUID
	Budget        decimal.Decimal
	CostPerVote   decimal.Decimal
	Currency      string
	Method        string
	Customer      txservice.CustomerInput
}

type PaymentInput struct {
	Method   string
	Customer txservice.CustomerInput
}

// CreateResult: Transaction/Checkout nil kalau inisiasi pembayaran gagal.
type CreateResult struct {
	Poll        *ppmodel.PromotedPoll
	Transaction *txmodel.Transaction
	Checkout    *txservice.Checkout
}

/* =========================================================
   CREATE
========================================================= */

// Create menyimpan poll (pending_approval, payment pending) lalu langsung memulai pembayaran budget.
// Kalau pembayaran gagal dimulai, poll tetap ada dengan payment_status=failed dan bisa di-retry.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	target, err := TargetVotes(in.Budget, in.CostPerVote)
	if err != nil {
		return CreateResult{}, err
	}

	p := &ppmodel.PromotedPoll{
		PromotedPollID:            uuid.New(),
		PromotedPollPollID:        in.PollID,
		PromotedPollSponsorUserID: in.SponsorUserID,
		PromotedPollBudget:        in.Budget.Round(2),
		PromotedPollCostPerVote:   in.CostPerVote.Round(2),
		PromotedPollCurrency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
		PromotedPollTargetVotes:   target,
		PromotedPollSpent:         decimal.Zero,
		PromotedPollStatus:        ppmodel.StatusPendingApproval,
		PromotedPollPaymentStatus: txmodel.PollPaymentPending,
	}
	if err := s.Store.Create(ctx, p); err != nil {
		return CreateResult{}, err
	}

	res, err := s.startPayment(ctx, p, PaymentInput{Method: in.Method, Customer: in.Customer})
	res.Poll = p
	return res, err
}

/* =========================================================
   RETRY PAYMENT
========================================================= */

func (s *Service) RetryPayment(ctx context.Context, pollID, userID uuid.UUID, in PaymentInput) (CreateResult, error) {
	p, err := s.Store.FindByID(ctx, pollID)
	if err != nil {
		return CreateResult{}, err
	}
	if p.PromotedPollSponsorUserID != userID {
		return CreateResult{}, ErrNotOwner
	}
	if p.PromotedPollStatus != ppmodel.StatusPendingApproval {
		return CreateResult{}, fmt.Errorf("%w (status=%s)", ErrRetryNotAllowed, p.PromotedPollStatus)
	}
	switch p.PromotedPollPaymentStatus {
	case txmodel.PollPaymentFailed:
	case txmodel.PollPaymentPending:
		// checkout lama ditutup dulu, supaya dua transaksi pending tidak bisa sama-sama dibayar
		if p.PromotedPollTransactionID != nil {
			if err := s.Payments.Supersede(ctx, *p.PromotedPollTransactionID); err != nil {
				if errors.Is(err, txmodel.ErrTransactionNotPending) {
					return CreateResult{}, fmt.Errorf("%w (transaction %s already settled)", ErrRetryNotAllowed, *p.PromotedPollTransactionID)
				}
				return CreateResult{}, err
			}
		}
	default:
		return CreateResult{}, fmt.Errorf("%w (payment_status=%s)", ErrRetryNotAllowed, p.PromotedPollPaymentStatus)
	}

	res, err := s.startPayment(ctx, p, in)
	res.Poll = p
	return res, err
}

func (s *Service) startPayment(ctx context.Context, p *ppmodel.PromotedPoll, in PaymentInput) (CreateResult, error) {
	pollID := p.PromotedPollID
	t, co, err := s.Payments.Start(ctx, txservice.InitiateInput{
		UserID:         p.PromotedPollSponsorUserID,
		PromotedPollID: &pollID,
		Amount:         p.PromotedPollBudget,
		Currency:       p.PromotedPollCurrency,
		Method:         in.Method,
		Description:    "Promoted poll " + p.PromotedPollPollID.String(),
		Customer:       in.Customer,
	})
	if err != nil {
		log.Printf("[PROMOTED-POLL][WARN] pembayaran poll %s gagal dimulai: %v", pollID, err)
		if lerr := s.Store.SetPaymentStatus(ctx, pollID, txmodel.PollPaymentFailed); lerr != nil {
			log.Printf("[PROMOTED-POLL][ERROR] gagal set payment_status failed poll %s: %v", pollID, lerr)
		} else {
			p.PromotedPollPaymentStatus = txmodel.PollPaymentFailed
		}
		return CreateResult{}, fmt.Errorf("%w: %w", ErrPaymentInitiated, err)
	}

	// wallet langsung completed → paid; gateway → pending sampai webhook datang
	payStatus := txmodel.PollPaymentStatusFor(t.TransactionStatus)
	if err := s.Store.LinkTransaction(ctx, pollID, t.TransactionID, payStatus); err != nil {
		// transaksi tetap sah; reconciler yang menyamakan nanti
		log.Printf("[PROMOTED-POLL][ERROR] gagal link transaksi %s ke poll %s: %v", t.TransactionID, pollID, err)
	} else {
		p.PromotedPollTransactionID = &t.TransactionID
		p.PromotedPollPaymentStatus = payStatus
	}
	return CreateResult{Transaction: t, Checkout: &co}, nil
}

/* =========================================================
   STATUS (admin)
========================================================= */

func (s *Service) ChangeStatus(ctx context.Context, pollID uuid.UUID, to ppmodel.PromotedPollStatus, reason string) (*ppmodel.PromotedPoll, error) {
	var out *ppmodel.PromotedPoll
	err := s.Store.WithinTx(ctx, func(st Store) error {
		p, err := st.LockByID(ctx, pollID)
		if err != nil {
			return err
		}
		if err := Transition(p, to, reason, s.now()); err != nil {
			return err
		}
		if err := st.Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[PROMOTED-POLL] poll %s → %s", out.PromotedPollID, out.PromotedPollStatus)
	return out, nil
}

/* =========================================================
   VOTES
========================================================= */

func (s *Service) RecordVote(ctx context.Context, pollID uuid.UUID) (*ppmodel.PromotedPoll, error) {
	var (
		out       *ppmodel.PromotedPoll
		completed bool
	)
	err := s.Store.WithinTx(ctx, func(st Store) error {
		p, err := st.LockByID(ctx, pollID)
		if err != nil {
			return err
		}
		if completed, err = ApplyVote(p, s.now()); err != nil {
			return err
		}
		if err := st.Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if completed {
		log.Printf("[PROMOTED-POLL] poll %s selesai: %d vote, spent %s/%s",
			out.PromotedPollID, out.PromotedPollVotesReceived, out.PromotedPollSpent.StringFixed(2), out.PromotedPollBudget.StringFixed(2))
	}
	return out, nil
}

/* =========================================================
   READ
========================================================= */

func (s *Service) List(ctx context.Context, f ListFilter) ([]ppmodel.PromotedPoll, int64, error) {
	return s.Store.List(ctx, f)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
