package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pollku_backend/internals/features/payments/transactions/model"
	"pollku_backend/internals/features/payments/transactions/service"
	"pollku_backend/internals/helpers/events"
)

func TestRefunder_CompletedTransactionIsRefunded(t *testing.T) {
	store := newMemStore()
	pub := &recordingPublisher{}
	t1, p1 := seedPending(store)
	t1.TransactionStatus = model.TransactionStatusCompleted
	store.polls[p1] = model.PollPaymentPaid
	adminID := uuid.New()

	r := &service.Refunder{Store: store, Publisher: pub, Now: func() time.Time { return fixedNow }}
	out, err := r.Refund(context.Background(), service.RefundInput{
		TransactionID: t1.TransactionID,
		AdminID:       adminID,
		Reason:        "  duplicate charge ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TransactionStatus != model.TransactionStatusRefunded {
		t.Fatalf("status = %s", out.TransactionStatus)
	}
	if out.TransactionRefundedAt == nil || !out.TransactionRefundedAt.Equal(fixedNow) {
		t.Fatalf("refunded_at = %v", out.TransactionRefundedAt)
	}
	if out.TransactionMetadata["refund_reason"] != "duplicate charge" || out.TransactionMetadata["refunded_by"] != adminID.String() {
		t.Fatalf("metadata = %v", out.TransactionMetadata)
	}
	if store.polls[p1] != model.PollPaymentRefunded {
		t.Fatalf("poll payment_status = %s", store.polls[p1])
	}
	if len(pub.msgs) != 1 || pub.msgs[0].topic != events.TopicPaymentRefund {
		t.Fatalf("expected one refund message, got %+v", pub.msgs)
	}
}

func TestRefunder_OnlyCompletedIsRefundable(t *testing.T) {
	for _, st := range []model.TransactionStatus{
		model.TransactionStatusPending,
		model.TransactionStatusFailed,
		model.TransactionStatusRefunded,
	} {
		t.Run(string(st), func(t *testing.T) {
			store := newMemStore()
			pub := &recordingPublisher{}
			t1, _ := seedPending(store)
			t1.TransactionStatus = st

			_, err := (&service.Refunder{Store: store, Publisher: pub}).Refund(context.Background(), service.RefundInput{TransactionID: t1.TransactionID, Reason: "nope"})
			if !errors.Is(err, service.ErrNotRefundable) {
				t.Fatalf("expected ErrNotRefundable, got %v", err)
			}
			if store.statusUpdates != 0 || len(pub.msgs) != 0 {
				t.Fatal("non-refundable transaction must not be touched")
			}
		})
	}
}

func TestRefunder_UnknownTransaction(t *testing.T) {
	_, err := (&service.Refunder{Store: newMemStore()}).Refund(context.Background(), service.RefundInput{TransactionID: uuid.New()})
	if !errors.Is(err, model.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestRefunder_WalletTransactionCreditsBalance(t *testing.T) {
	store := newMemStore()
	t1, p1 := seedPending(store)
	t1.TransactionStatus = model.TransactionStatusCompleted
	t1.TransactionGatewayProvider = model.ProviderWallet
	store.polls[p1] = model.PollPaymentPaid
	store.wallets[t1.TransactionUserID] = decimal.NewFromInt(250)

	r := &service.Refunder{Store: store, Publisher: &recordingPublisher{}, Now: func() time.Time { return fixedNow }}
	if _, err := r.Refund(context.Background(), service.RefundInput{TransactionID: t1.TransactionID, Reason: "cancelled"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.wallets[t1.TransactionUserID]; !got.Equal(decimal.NewFromInt(5250)) {
		t.Fatalf("wallet balance = %s, want 5250", got)
	}
}

func TestRefunder_WalletCreditFailureAbortsRefund(t *testing.T) {
	store := newMemStore()
	pub := &recordingPublisher{}
	t1, _ := seedPending(store)
	t1.TransactionStatus = model.TransactionStatusCompleted
	t1.TransactionGatewayProvider = model.ProviderWallet

	_, err := (&service.Refunder{Store: store, Publisher: pub}).Refund(context.Background(), service.RefundInput{TransactionID: t1.TransactionID})
	if !errors.Is(err, model.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatal("failed refund must not be published")
	}
}

func TestRefunder_GatewayTransactionLeavesWalletAlone(t *testing.T) {
	store := newMemStore()
	t1, _ := seedPending(store)
	t1.TransactionStatus = model.TransactionStatusCompleted
	store.wallets[t1.TransactionUserID] = decimal.NewFromInt(10)

	if _, err := (&service.Refunder{Store: store}).Refund(context.Background(), service.RefundInput{TransactionID: t1.TransactionID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.wallets[t1.TransactionUserID]; !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("paystack refund must not touch the wallet, balance = %s", got)
	}
}

func TestRefunder_SupersededPollIsLeftAlone(t *testing.T) {
	store := newMemStore()
	t1, p1 := seedPending(store)
	t1.TransactionStatus = model.TransactionStatusCompleted
	store.polls[p1] = model.PollPaymentPaid
	store.pollLinks[p1] = uuid.New()

	out, err := (&service.Refunder{Store: store}).Refund(context.Background(), service.RefundInput{TransactionID: t1.TransactionID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TransactionStatus != model.TransactionStatusRefunded {
		t.Fatalf("status = %s", out.TransactionStatus)
	}
	if store.polls[p1] != model.PollPaymentPaid {
		t.Fatalf("poll linked to another transaction must stay paid, got %s", store.polls[p1])
	}
}

/* ===================== reconcile ===================== */

type stubReconcileStore struct {
	n   int64
	err error
}

func (s stubReconcileStore) ReconcilePollPaymentStatus(ctx context.Context) (int64, error) {
	return s.n, s.err
}

func TestReconciler_Run(t *testing.T) {
	n, err := (&service.Reconciler{Store: stubReconcileStore{n: 3}}).Run(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("got n=%d err=%v", n, err)
	}

	_, err = (&service.Reconciler{Store: stubReconcileStore{err: errBoom}}).Run(context.Background())
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
}
