package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect membuat client redis dan ping sekali. addr kosong → nil (fitur cache dimatikan).
func Connect(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		log.Println("⚠️ REDIS_ADDR kosong, dedup webhook pakai no-op")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("⚠️ Redis ping gagal (%v), dedup webhook pakai no-op", err)
		_ = rdb.Close()
		return nil
	}
	log.Printf("✅ Redis connected: %s", addr)
	return rdb
}

// DeliveryStore menyimpan delivery webhook yang sudah sukses diproses.
type DeliveryStore struct {
	rdb *redis.Client
}

func NewDeliveryStore(rdb *redis.Client) *DeliveryStore {
	return &DeliveryStore{rdb: rdb}
}

func (s *DeliveryStore) Seen(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *DeliveryStore) Remember(ctx context.Context, key string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Err()
}
