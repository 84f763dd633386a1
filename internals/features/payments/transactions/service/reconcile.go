package service

import (
	"context"
	"log"
	"time"
)

// Reconciler menurunkan ulang promoted_poll_payment_status dari status transaksi,
// untuk menambal update poll best-effort yang gagal saat settlement.
type Reconciler struct {
	Store ReconcileStore
}

func (r *Reconciler) Run(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := r.Store.ReconcilePollPaymentStatus(ctx)
	if err != nil {
		log.Printf("[RECONCILE][ERROR] gagal rekonsiliasi payment_status: %v", err)
		return 0, err
	}
	if n > 0 {
		log.Printf("[RECONCILE] %d promoted poll disinkronkan (%s)", n, time.Since(start))
	} else {
		log.Printf("[RECONCILE] semua promoted poll sudah sinkron (%s)", time.Since(start))
	}
	return n, nil
}
