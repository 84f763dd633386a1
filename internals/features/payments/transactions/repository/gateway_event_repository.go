package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pollku_backend/internals/features/payments/transactions/model"
)

type GatewayEventRepository struct {
	DB *gorm.DB
}

func NewGatewayEventRepository(db *gorm.DB) *GatewayEventRepository {
	return &GatewayEventRepository{DB: db}
}

func (r *GatewayEventRepository) Record(ctx context.Context, ev *model.GatewayEvent) error {
	return r.DB.WithContext(ctx).Create(ev).Error
}

// Finish menutup row event: status akhir + info yang baru diketahui setelah parse/settle.
func (r *GatewayEventRepository) Finish(ctx context.Context, id uuid.UUID, out model.GatewayEventOutcome) error {
	updates := map[string]interface{}{
		"gateway_event_status":       out.Status,
		"gateway_event_processed_at": time.Now(),
	}
	if out.TransactionID != nil {
		updates["gateway_event_transaction_id"] = *out.TransactionID
	}
	if out.EventType != "" {
		updates["gateway_event_type"] = out.EventType
	}
	if out.Reference != "" {
		updates["gateway_event_reference"] = out.Reference
	}
	if out.Error != "" {
		updates["gateway_event_error"] = out.Error
	}
	return r.DB.WithContext(ctx).
		Model(&model.GatewayEvent{}).
		Where("gateway_event_id = ?", id).
		Updates(updates).Error
}

type GatewayEventFilter struct {
	Provider  string
	Status    string
	Reference string
	Offset    int
	Limit     int
}

func (r *GatewayEventRepository) List(ctx context.Context, f GatewayEventFilter) ([]model.GatewayEvent, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.GatewayEvent{})
	if v := strings.TrimSpace(f.Provider); v != "" {
		q = q.Where("gateway_event_provider = ?", v)
	}
	if v := strings.TrimSpace(f.Status); v != "" {
		q = q.Where("gateway_event_status = ?", v)
	}
	if v := strings.TrimSpace(f.Reference); v != "" {
		q = q.Where("gateway_event_reference = ?", v)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := []model.GatewayEvent{}
	if err := q.Order("gateway_event_received_at DESC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
