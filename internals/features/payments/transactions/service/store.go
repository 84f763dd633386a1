package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pollku_backend/internals/features/payments/transactions/model"
)

// TransactionStore = kontrak data store untuk settlement & refund.
// Implementasi gorm ada di repository.TransactionRepository.
type TransactionStore interface {
	// WithinTx menjalankan fn dalam satu transaksi DB; store yang diberikan ke fn terikat ke transaksi itu.
	WithinTx(ctx context.Context, fn func(store TransactionStore) error) error
	LockByGatewayReference(ctx context.Context, provider, reference string) (*model.Transaction, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.TransactionStatus, metaPatch map[string]interface{}, at time.Time) error
	// SetPollPaymentStatus hanya menyentuh poll yang masih di-link ke transactionID
	// (atau belum di-link sama sekali); link ke transaksi lain → model.ErrPollLinkChanged.
	// Boleh gagal tanpa membatalkan update transaksi (savepoint).
	SetPollPaymentStatus(ctx context.Context, pollID, transactionID uuid.UUID, status string) error
	// CreditWallet mengembalikan saldo untuk refund transaksi wallet.
	CreditWallet(ctx context.Context, userID uuid.UUID, currency string, amount decimal.Decimal) error
}

type InitiationStore interface {
	Create(ctx context.Context, t *model.Transaction) error
	MergeMetadata(ctx context.Context, id uuid.UUID, patch map[string]interface{}) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.TransactionStatus, metaPatch map[string]interface{}, at time.Time) error
	// FailIfPending: pending → failed; selain pending → model.ErrTransactionNotPending.
	FailIfPending(ctx context.Context, id uuid.UUID, metaPatch map[string]interface{}, at time.Time) error
	// PayFromWallet: debit saldo + insert transaksi completed + tandai poll paid, atomik.
	PayFromWallet(ctx context.Context, t *model.Transaction) error
}

type ReconcileStore interface {
	ReconcilePollPaymentStatus(ctx context.Context) (int64, error)
}
