package models

import (
	"travleap/src/types"

	"github.com/google/uuid"
)

// AuditLog records every refund and cancellation with enough detail to
// answer a dispute: who initiated it, the amounts before and after, the
// point movement and the gateway reference.
type AuditLog struct {
	ID           uuid.UUID    `gorm:"primarykey;type:char(36)" json:"id"`
	Type         string       `json:"type"`
	Initiator    string       `json:"initiator"`
	OrderID      *uuid.UUID   `gorm:"index;type:char(36)" json:"order_id,omitempty"`
	PaymentID    *uuid.UUID   `gorm:"index;type:char(36)" json:"payment_id,omitempty"`
	AmountBefore float64      `json:"amount_before"`
	AmountAfter  float64      `json:"amount_after"`
	PointsDelta  int64        `json:"points_delta"`
	GatewayRef   *string      `json:"gateway_ref,omitempty"`
	Metadata     *types.JSONB `gorm:"serializer:json" json:"metadata,omitempty"`

	types.Timestamps
}
