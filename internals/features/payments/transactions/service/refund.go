package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"pollku_backend/internals/features/payments/transactions/model"
	"pollku_backend/internals/helpers/events"
)

var ErrNotRefundable = errors.New("only completed transactions can be refunded")

type Refunder struct {
	Store     TransactionStore
	Publisher events.Publisher
	Now       func() time.Time
}

type RefundInput struct {
	TransactionID uuid.UUID
	AdminID       uuid.UUID
	Reason        string
}

// Refund: completed → refunded (aksi admin, di luar alur webhook).
// Transaksi wallet: saldo dikredit balik secara atomik. Transaksi gateway: uang dikembalikan manual di dashboard gateway.
// Poll terkait ikut refunded secara best-effort, sama seperti settlement.
func (s *Refunder) Refund(ctx context.Context, in RefundInput) (*model.Transaction, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	var out *model.Transaction
	err := s.Store.WithinTx(ctx, func(st TransactionStore) error {
		t, err := st.LockByID(ctx, in.TransactionID)
		if err != nil {
			return err
		}
		if t.TransactionStatus != model.TransactionStatusCompleted {
			return fmt.Errorf("%w (status=%s)", ErrNotRefundable, t.TransactionStatus)
		}

		patch := map[string]interface{}{
			"refund_reason": strings.TrimSpace(in.Reason),
			"refunded_by":   in.AdminID.String(),
		}
		if err := st.UpdateStatus(ctx, t.TransactionID, model.TransactionStatusRefunded, patch, now); err != nil {
			return fmt.Errorf("update transaction %s: %w", t.TransactionID, err)
		}
		t.TransactionStatus = model.TransactionStatusRefunded
		t.TransactionRefundedAt = &now
		t.TransactionMetadata = model.MergeMetadata(t.TransactionMetadata, patch)

		// saldo wallet dikembalikan di transaksi DB yang sama; gagal = refund batal
		if t.TransactionGatewayProvider == model.ProviderWallet {
			if err := st.CreditWallet(ctx, t.TransactionUserID, t.TransactionCurrency, t.TransactionAmount); err != nil {
				return fmt.Errorf("credit wallet user %s: %w", t.TransactionUserID, err)
			}
		}

		if t.TransactionPromotedPollID != nil {
			err := st.SetPollPaymentStatus(ctx, *t.TransactionPromotedPollID, t.TransactionID, model.PollPaymentRefunded)
			switch {
			case err == nil:
			case errors.Is(err, model.ErrPollLinkChanged):
				log.Printf("[REFUND][WARN] promoted poll %s sudah di-link ke transaksi lain, status poll tidak diubah", *t.TransactionPromotedPollID)
			default:
				log.Printf("[REFUND][ERROR] gagal set promoted poll %s → refunded: %v", *t.TransactionPromotedPollID, err)
			}
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Publisher != nil {
		payload := map[string]interface{}{
			"event_type":       events.TopicPaymentRefund,
			"transaction_id":   out.TransactionID,
			"promoted_poll_id": out.TransactionPromotedPollID,
			"amount":           out.TransactionAmount.StringFixed(2),
			"currency":         out.TransactionCurrency,
			"refunded_at":      now.UTC().Format(time.RFC3339),
		}
		if err := s.Publisher.Publish(ctx, events.TopicPaymentRefund, out.TransactionID.String(), payload); err != nil {
			log.Printf("[REFUND][WARN] publish gagal untuk transaksi %s: %v", out.TransactionID, err)
		}
	}
	return out, nil
}
