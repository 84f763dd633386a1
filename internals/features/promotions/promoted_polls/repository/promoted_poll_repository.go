package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	txmodel "pollku_backend/internals/features/payments/transactions/model"
	ppmodel "pollku_backend/internals/features/promotions/promoted_polls/model"
	"pollku_backend/internals/features/promotions/promoted_polls/service"
)

type PromotedPollRepository struct {
	DB *gorm.DB
}

func NewPromotedPollRepository(db *gorm.DB) *PromotedPollRepository {
	return &PromotedPollRepository{DB: db}
}

func (r *PromotedPollRepository) WithinTx(ctx context.Context, fn func(store service.Store) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PromotedPollRepository{DB: tx})
	})
}

func (r *PromotedPollRepository) Create(ctx context.Context, p *ppmodel.PromotedPoll) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

// gorm.DeletedAt → soft-deleted row otomatis tidak ikut.
func (r *PromotedPollRepository) FindByID(ctx context.Context, id uuid.UUID) (*ppmodel.PromotedPoll, error) {
	var p ppmodel.PromotedPoll
	if err := r.DB.WithContext(ctx).
		Where("promoted_poll_id = ?", id).
		Take(&p).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (r *PromotedPollRepository) LockByID(ctx context.Context, id uuid.UUID) (*ppmodel.PromotedPoll, error) {
	var p ppmodel.PromotedPoll
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("promoted_poll_id = ?", id).
		Take(&p).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (r *PromotedPollRepository) Save(ctx context.Context, p *ppmodel.PromotedPoll) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *PromotedPollRepository) LinkTransaction(ctx context.Context, pollID, transactionID uuid.UUID, paymentStatus string) error {
	return r.update(ctx, pollID, map[string]interface{}{
		"promoted_poll_transaction_id": transactionID,
		"promoted_poll_payment_status": paymentStatus,
	})
}

func (r *PromotedPollRepository) SetPaymentStatus(ctx context.Context, pollID uuid.UUID, paymentStatus string) error {
	return r.update(ctx, pollID, map[string]interface{}{
		"promoted_poll_payment_status": paymentStatus,
	})
}

func (r *PromotedPollRepository) update(ctx context.Context, pollID uuid.UUID, updates map[string]interface{}) error {
	updates["promoted_poll_updated_at"] = time.Now()
	res := r.DB.WithContext(ctx).
		Model(&ppmodel.PromotedPoll{}).
		Where("promoted_poll_id = ?", pollID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return txmodel.ErrPollNotFound
	}
	return nil
}

func (r *PromotedPollRepository) List(ctx context.Context, f service.ListFilter) ([]ppmodel.PromotedPoll, int64, error) {
	q := r.DB.WithContext(ctx).Model(&ppmodel.PromotedPoll{})
	if f.SponsorUserID != nil {
		q = q.Where("promoted_poll_sponsor_user_id = ?", *f.SponsorUserID)
	}
	if v := strings.TrimSpace(f.Status); v != "" {
		q = q.Where("promoted_poll_status = ?", v)
	}
	if v := strings.TrimSpace(f.PaymentStatus); v != "" {
		q = q.Where("promoted_poll_payment_status = ?", v)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := []ppmodel.PromotedPoll{}
	if err := q.Order("promoted_poll_created_at DESC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return txmodel.ErrPollNotFound
	}
	return err
}
