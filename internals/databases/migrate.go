package database

import (
	"log"

	"gorm.io/gorm"

	txmodel "pollku_backend/internals/features/payments/transactions/model"
	ppmodel "pollku_backend/internals/features/promotions/promoted_polls/model"
)

// AutoMigrate hanya untuk tabel milik service ini.
func AutoMigrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		log.Printf("[WARN] pgcrypto extension: %v", err)
	}

	log.Println("[INFO] AutoMigrate: transactions, wallets, payment_gateway_events, promoted_polls")
	return db.AutoMigrate(
		&txmodel.Transaction{},
		&txmodel.Wallet{},
		&txmodel.GatewayEvent{},
		&ppmodel.PromotedPoll{},
	)
}
