package service

import (
	"context"

	"github.com/google/uuid"

	ppmodel "pollku_backend/internals/features/promotions/promoted_polls/model"
)

type ListFilter struct {
	SponsorUserID *uuid.UUID
	Status        string
	PaymentStatus string
	Offset        int
	Limit         int
}

// Store = kontrak data promoted poll. Implementasi gorm: repository.PromotedPollRepository.
type Store interface {
	WithinTx(ctx context.Context, fn func(store Store) error) error
	Create(ctx context.Context, p *ppmodel.PromotedPoll) error
	FindByID(ctx context.Context, id uuid.UUID) (*ppmodel.PromotedPoll, error)
	LockByID(ctx context.Context, id uuid.UUID) (*ppmodel.PromotedPoll, error)
	Save(ctx context.Context, p *ppmodel.PromotedPoll) error
	LinkTransaction(ctx context.Context, pollID, transactionID uuid.UUID, paymentStatus string) error
	SetPaymentStatus(ctx context.Context, pollID uuid.UUID, paymentStatus string) error
	List(ctx context.Context, f ListFilter) ([]ppmodel.PromotedPoll, int64, error)
}
