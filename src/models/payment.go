package models

import (
	"travleap/src/types"

	"github.com/google/uuid"
)

// Payment is one gateway charge for one booking. Sibling payments created
// in the same checkout share an OrderID; settlement and refunds always act
// on the whole sibling set.
type Payment struct {
	ID      uuid.UUID `gorm:"primarykey;type:char(36)" json:"id"`
	OrderID uuid.UUID `gorm:"index;type:char(36)" json:"order_id"`

	BookingID    uint                `json:"booking_id,omitempty"`
	UserID       uint                `json:"user_id,omitempty"`
	Amount       float64             `json:"amount"`
	Currency     string              `json:"currency,omitempty"`
	Status       types.PaymentStatus `gorm:"default:'pending'" json:"status,omitempty"`
	GatewayTxnID *string             `json:"-"`

	// PointsEarned stays NULL until accrual is persisted and is never
	// recomputed afterwards. Refunds reverse exactly this amount.
	PointsEarned *int64 `json:"points_earned,omitempty"`
	PointsUsed   int64  `json:"points_used,omitempty"`

	Metadata *types.JSONB `gorm:"serializer:json" json:"metadata,omitempty"`

	Booking Booking `gorm:"foreignKey:booking_id" json:"booking,omitempty"`

	types.Timestamps
}
