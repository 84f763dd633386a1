package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"pollku_backend/internals/features/payments/transactions/model"
	"pollku_backend/internals/helpers/events"
)

var ErrUnsupportedEvent = errors.New("event kind has no settlement")

type SettlementResult struct {
	TransactionID  uuid.UUID               `json:"transaction_id"`
	PromotedPollID *uuid.UUID              `json:"promoted_poll_id,omitempty"`
	Status         model.TransactionStatus `json:"status"`
	// Changed=true hanya kalau transaksi benar-benar berpindah status di delivery ini.
	Changed bool `json:"changed"`
	// Ignored=true kalau transaksi sudah terminal dengan status lain (event telat/bentrok).
	Ignored    bool `json:"ignored"`
	PollSynced bool `json:"poll_synced"`
	// PollSuperseded=true kalau poll sudah di-link ke transaksi lain; poll tidak disentuh.
	PollSuperseded bool `json:"poll_superseded,omitempty"`
}

type Settler struct {
	Store     TransactionStore
	Publisher events.Publisher
	Now       func() time.Time
}

func NewSettler(store TransactionStore, publisher events.Publisher) *Settler {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Settler{Store: store, Publisher: publisher, Now: time.Now}
}

func targetStatus(kind EventKind) (model.TransactionStatus, bool) {
	switch kind {
	case EventChargeSuccess:
		return model.TransactionStatusCompleted, true
	case EventChargeFailed:
		return model.TransactionStatusFailed, true
	default:
		return "", false
	}
}

/*
Apply menyelesaikan (settle) transaksi dari event gateway.

  - transaksi dikunci (FOR UPDATE) dan di-update lebih dulu; gagal = fatal
  - promoted poll di-update setelahnya secara best-effort; gagal = log saja
  - poll yang sudah di-link ke transaksi lain (retry) dibiarkan
  - transaksi terminal tidak pernah pindah status lagi
*/
func (s *Settler) Apply(ctx context.Context, provider string, ev WebhookEvent) (SettlementResult, error) {
	var res SettlementResult

	target, ok := targetStatus(ev.Kind)
	if !ok {
		return res, ErrUnsupportedEvent
	}
	now := s.now()

	err := s.Store.WithinTx(ctx, func(st TransactionStore) error {
		t, err := st.LockByGatewayReference(ctx, provider, ev.Reference)
		if err != nil {
			return err
		}
		res.TransactionID = t.TransactionID
		res.PromotedPollID = t.TransactionPromotedPollID

		switch {
		case t.TransactionStatus == target:
			// replay: status sudah sama, cukup sinkronkan ulang poll
			res.Status = target
		case t.TransactionStatus.IsTerminal():
			log.Printf("[WEBHOOK][WARN] %s ref=%s: transaksi %s sudah %s, event %s diabaikan",
				provider, ev.Reference, t.TransactionID, t.TransactionStatus, ev.Name)
			res.Status = t.TransactionStatus
			res.Ignored = true
			return nil
		default:
			if err := st.UpdateStatus(ctx, t.TransactionID, target, ev.MetadataPatch(), now); err != nil {
				return fmt.Errorf("update transaction %s: %w", t.TransactionID, err)
			}
			res.Status = target
			res.Changed = true
		}

		if t.TransactionPromotedPollID != nil {
			pollStatus := model.PollPaymentStatusFor(target)
			err := st.SetPollPaymentStatus(ctx, *t.TransactionPromotedPollID, t.TransactionID, pollStatus)
			switch {
			case err == nil:
				res.PollSynced = true
			case errors.Is(err, model.ErrPollLinkChanged):
				res.PollSuperseded = true
				log.Printf("[WEBHOOK][WARN] %s ref=%s: promoted poll %s sudah di-link ke transaksi lain, status poll tidak diubah (transaksi %s → %s)",
					provider, ev.Reference, *t.TransactionPromotedPollID, t.TransactionID, target)
			default:
				pollPropagationFailures.WithLabelValues(provider).Inc()
				log.Printf("[WEBHOOK][ERROR] gagal set promoted poll %s → %s (transaksi %s tetap %s): %v",
					*t.TransactionPromotedPollID, pollStatus, t.TransactionID, target, err)
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	if res.Changed {
		settlementTransitions.WithLabelValues(provider, string(res.Status)).Inc()
		s.publish(ctx, provider, ev, res, now)
	}
	return res, nil
}

func (s *Settler) publish(ctx context.Context, provider string, ev WebhookEvent, res SettlementResult, at time.Time) {
	payload := map[string]interface{}{
		"event_type":       events.TopicPaymentSettled,
		"provider":         provider,
		"reference":        ev.Reference,
		"transaction_id":   res.TransactionID,
		"promoted_poll_id": res.PromotedPollID,
		"status":           res.Status,
		"poll_synced":      res.PollSynced,
		"settled_at":       at.UTC().Format(time.RFC3339),
	}
	if err := s.Publisher.Publish(ctx, events.TopicPaymentSettled, res.TransactionID.String(), payload); err != nil {
		log.Printf("[WEBHOOK][WARN] publish %s gagal untuk transaksi %s: %v", events.TopicPaymentSettled, res.TransactionID, err)
	}
}

func (s *Settler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
