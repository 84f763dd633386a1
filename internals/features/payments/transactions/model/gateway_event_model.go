package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

/*
  payment_gateway_events = LOG WEBHOOK / CALLBACK PAYMENT GATEWAY
  - Bisa banyak row per 1 transaksi (tiap delivery / retry dari gateway)
  - Nyimpen raw headers, payload, signature, status processing.
*/

type GatewayEventStatus string

const (
	GatewayEventStatusReceived  GatewayEventStatus = "received"
	GatewayEventStatusProcessed GatewayEventStatus = "processed"
	GatewayEventStatusIgnored   GatewayEventStatus = "ignored"
	GatewayEventStatusRejected  GatewayEventStatus = "rejected"
	GatewayEventStatusFailed    GatewayEventStatus = "failed"
)

type GatewayEvent struct {
	GatewayEventID            uuid.UUID  `gorm:"column:gateway_event_id;type:uuid;default:gen_random_uuid();primaryKey" json:"gateway_event_id"`
	GatewayEventTransactionID *uuid.UUID `gorm:"column:gateway_event_transaction_id;type:uuid;index" json:"gateway_event_transaction_id,omitempty"`

	GatewayEventProvider  string  `gorm:"column:gateway_event_provider;type:varchar(24);not null;index" json:"gateway_event_provider"`
	GatewayEventType      *string `gorm:"column:gateway_event_type" json:"gateway_event_type,omitempty"`
	GatewayEventReference *string `gorm:"column:gateway_event_reference;index" json:"gateway_event_reference,omitempty"`

	// Raw data (buat debug / replay)
	GatewayEventHeaders   datatypes.JSON `gorm:"column:gateway_event_headers;type:jsonb" json:"gateway_event_headers,omitempty"`
	GatewayEventPayload   datatypes.JSON `gorm:"column:gateway_event_payload;type:jsonb" json:"gateway_event_payload,omitempty"`
	GatewayEventSignature *string        `gorm:"column:gateway_event_signature" json:"gateway_event_signature,omitempty"`

	GatewayEventStatus GatewayEventStatus `gorm:"column:gateway_event_status;type:varchar(16);not null;default:'received';index" json:"gateway_event_status"`
	GatewayEventError  *string            `gorm:"column:gateway_event_error" json:"gateway_event_error,omitempty"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null;autoCreateTime" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at,omitempty"`
}

func (GatewayEvent) TableName() string { return "payment_gateway_events" }

// GatewayEventOutcome = hasil akhir pemrosesan satu delivery.
type GatewayEventOutcome struct {
	Status        GatewayEventStatus
	TransactionID *uuid.UUID
	EventType     string
	Reference     string
	Error         string
}
