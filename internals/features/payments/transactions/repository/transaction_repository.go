package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pollku_backend/internals/features/payments/transactions/model"
	"pollku_backend/internals/features/payments/transactions/service"
)

type TransactionRepository struct {
	DB *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

/* ====================== TX ====================== */

func (r *TransactionRepository) WithinTx(ctx context.Context, fn func(store service.TransactionStore) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TransactionRepository{DB: tx})
	})
}

/* ====================== LOOKUP ====================== */

func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	if err := r.DB.WithContext(ctx).
		Where("transaction_id = ?", id).
		Take(&t).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &t, nil
}

func (r *TransactionRepository) FindByGatewayReference(ctx context.Context, provider, reference string) (*model.Transaction, error) {
	var t model.Transaction
	if err := r.DB.WithContext(ctx).
		Where("transaction_gateway_provider = ? AND transaction_gateway_transaction_id = ?", provider, reference).
		Take(&t).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &t, nil
}

// LockByGatewayReference = FindByGatewayReference + SELECT ... FOR UPDATE.
// Delivery paralel untuk reference yang sama jadi berurutan.
func (r *TransactionRepository) LockByGatewayReference(ctx context.Context, provider, reference string) (*model.Transaction, error) {
	var t model.Transaction
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transaction_gateway_provider = ? AND transaction_gateway_transaction_id = ?", provider, reference).
		Take(&t).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &t, nil
}

func (r *TransactionRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transaction_id = ?", id).
		Take(&t).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &t, nil
}

type ListFilter struct {
	UserID   *uuid.UUID
	Status   string
	Provider string
	Offset   int
	Limit    int
}

func (r *TransactionRepository) List(ctx context.Context, f ListFilter) ([]model.Transaction, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.Transaction{})
	if f.UserID != nil {
		q = q.Where("transaction_user_id = ?", *f.UserID)
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		q = q.Where("transaction_status = ?", s)
	}
	if p := strings.TrimSpace(f.Provider); p != "" {
		q = q.Where("transaction_gateway_provider = ?", p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []model.Transaction{}
	if err := q.Order("transaction_created_at DESC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

/* ====================== WRITE ====================== */

func (r *TransactionRepository) Create(ctx context.Context, t *model.Transaction) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TransactionStatus, metaPatch map[string]interface{}, at time.Time) error {
	updates, err := statusUpdates(status, metaPatch, at)
	if err != nil {
		return err
	}
	res := r.DB.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("transaction_id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrTransactionNotFound
	}
	return nil
}

// FailIfPending: conditional update, aman berbarengan dengan webhook yang sedang settle transaksi yang sama.
func (r *TransactionRepository) FailIfPending(ctx context.Context, id uuid.UUID, metaPatch map[string]interface{}, at time.Time) error {
	updates, err := statusUpdates(model.TransactionStatusFailed, metaPatch, at)
	if err != nil {
		return err
	}
	res := r.DB.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("transaction_id = ? AND transaction_status = ?", id, model.TransactionStatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return model.ErrTransactionNotPending
	}
	return nil
}

func (r *TransactionRepository) MergeMetadata(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error {
	expr, err := metadataMergeExpr(patch)
	if err != nil {
		return err
	}
	res := r.DB.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("transaction_id = ?", id).
		Update("transaction_metadata", expr)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrTransactionNotFound
	}
	return nil
}

// SetPollPaymentStatus jalan di nested transaction (SAVEPOINT) kalau r.DB sedang dalam transaksi,
// jadi kegagalannya tidak ikut membatalkan update transaksi.
// Poll yang sudah di-link ke transaksi lain tidak disentuh (ErrPollLinkChanged).
func (r *TransactionRepository) SetPollPaymentStatus(ctx context.Context, pollID, transactionID uuid.UUID, status string) error {
	return r.DB.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		res := sp.Table("promoted_polls").
			Where("promoted_poll_id = ? AND promoted_poll_deleted_at IS NULL", pollID).
			Where("(promoted_poll_transaction_id = ? OR promoted_poll_transaction_id IS NULL)", transactionID).
			Updates(map[string]interface{}{
				"promoted_poll_payment_status": status,
				"promoted_poll_transaction_id": transactionID,
				"promoted_poll_updated_at":     time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var n int64
		if err := sp.Table("promoted_polls").
			Where("promoted_poll_id = ? AND promoted_poll_deleted_at IS NULL", pollID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return model.ErrPollNotFound
		}
		return model.ErrPollLinkChanged
	})
}

// CreditWallet: kebalikan debit di PayFromWallet. Wallet harus sudah ada (pernah didebit).
func (r *TransactionRepository) CreditWallet(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal) error {
	res := r.DB.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("wallet_user_id = ? AND wallet_currency = ?", userID, currency).
		Updates(map[string]interface{}{
			"wallet_balance":    gorm.Expr("wallet_balance + ?", amount),
			"wallet_updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrWalletNotFound
	}
	return nil
}

// PayFromWallet: debit saldo, insert transaksi (sudah completed) dan tandai poll paid dalam satu transaksi.
func (r *TransactionRepository) PayFromWallet(ctx context.Context, t *model.Transaction) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Wallet{}).
			Where("wallet_user_id = ? AND wallet_currency = ? AND wallet_balance >= ?",
				t.TransactionUserID, t.TransactionCurrency, t.TransactionAmount).
			Update("wallet_balance", gorm.Expr("wallet_balance - ?", t.TransactionAmount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrInsufficientBalance
		}

		if err := tx.Create(t).Error; err != nil {
			return err
		}

		if t.TransactionPromotedPollID != nil {
			res := tx.Table("promoted_polls").
				Where("promoted_poll_id = ? AND promoted_poll_deleted_at IS NULL", *t.TransactionPromotedPollID).
				Updates(map[string]interface{}{
					"promoted_poll_payment_status": model.PollPaymentPaid,
					"promoted_poll_transaction_id": t.TransactionID,
					"promoted_poll_updated_at":     time.Now(),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return model.ErrPollNotFound
			}
		}
		return nil
	})
}

/* ====================== RECONCILE ====================== */

// ReconcilePollPaymentStatus menyamakan payment_status poll dengan transaksi yang di-link.
func (r *TransactionRepository) ReconcilePollPaymentStatus(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).Exec(`
		UPDATE promoted_polls p
		   SET promoted_poll_payment_status = CASE t.transaction_status
		           WHEN 'completed' THEN 'paid'
		           WHEN 'failed'    THEN 'failed'
		           WHEN 'refunded'  THEN 'refunded'
		       END,
		       promoted_poll_updated_at = NOW()
		  FROM transactions t
		 WHERE t.transaction_id = p.promoted_poll_transaction_id
		   AND p.promoted_poll_deleted_at IS NULL
		   AND t.transaction_status IN ('completed','failed','refunded')
		   AND p.promoted_poll_payment_status IS DISTINCT FROM CASE t.transaction_status
		           WHEN 'completed' THEN 'paid'
		           WHEN 'failed'    THEN 'failed'
		           WHEN 'refunded'  THEN 'refunded'
		       END
	`)
	return res.RowsAffected, res.Error
}

/* ====================== Utils ====================== */

func statusUpdates(status model.TransactionStatus, metaPatch map[string]interface{}, at time.Time) (map[string]interface{}, error) {
	updates := map[string]interface{}{
		"transaction_status":     status,
		"transaction_updated_at": at,
	}
	if len(metaPatch) > 0 {
		expr, err := metadataMergeExpr(metaPatch)
		if err != nil {
			return nil, err
		}
		updates["transaction_metadata"] = expr
	}
	switch status {
	case model.TransactionStatusCompleted:
		updates["transaction_completed_at"] = at
	case model.TransactionStatusFailed:
		updates["transaction_failed_at"] = at
	case model.TransactionStatusRefunded:
		updates["transaction_refunded_at"] = at
	}
	return updates, nil
}

func metadataMergeExpr(patch map[string]interface{}) (clause.Expr, error) {
	b, err := json.Marshal(patch)
	if err != nil {
		return clause.Expr{}, err
	}
	return gorm.Expr("COALESCE(transaction_metadata, '{}'::jsonb) || ?::jsonb", string(b)), nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrTransactionNotFound
	}
	return err
}
