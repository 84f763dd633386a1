package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet: saldo internal user, dipakai metode bayar "wallet".
type Wallet struct {
	WalletID       uuid.UUID       `gorm:"column:wallet_id;type:uuid;default:gen_random_uuid();primaryKey" json:"wallet_id"`
	WalletUserID   uuid.UUID       `gorm:"column:wallet_user_id;type:uuid;not null;uniqueIndex" json:"wallet_user_id"`
	WalletBalance  decimal.Decimal `gorm:"column:wallet_balance;type:numeric(14,2);not null;default:0;check:wallet_balance >= 0" json:"wallet_balance"`
	WalletCurrency string          `gorm:"column:wallet_currency;type:varchar(8);not null" json:"wallet_currency"`

	WalletCreatedAt time.Time `gorm:"column:wallet_created_at;autoCreateTime" json:"wallet_created_at"`
	WalletUpdatedAt time.Time `gorm:"column:wallet_updated_at;autoUpdateTime" json:"wallet_updated_at"`
}

func (Wallet) TableName() string { return "wallets" }
