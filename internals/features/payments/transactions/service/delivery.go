package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DeliveryGuard mencatat delivery webhook yang sudah sukses, supaya retry identik
// dari gateway cukup di-ack tanpa diproses ulang.
type DeliveryGuard interface {
	Seen(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string, ttl time.Duration) error
}

type NopDeliveryGuard struct{}

func (NopDeliveryGuard) Seen(context.Context, string) (bool, error)          { return false, nil }
func (NopDeliveryGuard) Remember(context.Context, string, time.Duration) error { return nil }

func DeliveryKey(provider string, rawBody []byte) string {
	sum := sha256.Sum256(rawBody)
	return "webhook:" + provider + ":" + hex.EncodeToString(sum[:])
}
