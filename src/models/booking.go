package models

import (
	"time"
	"travleap/src/types"
)

type Booking struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	BookingNo     string              `gorm:"uniqueIndex" json:"booking_no,omitempty"`
	UnitID        uint                `json:"unit_id,omitempty"`
	UserID        uint                `json:"user_id,omitempty"`
	Qty           uint                `json:"qty,omitempty"`
	Status        types.BookingStatus `gorm:"default:'held'" json:"status,omitempty"`
	PaymentStatus types.PaymentStatus `gorm:"default:'pending'" json:"payment_status,omitempty"`
	HoldExpiresAt *time.Time          `json:"hold_expires_at,omitempty"`
	UnitPrice     float64             `json:"unit_price,omitempty"`
	Total         float64             `json:"total,omitempty"`
	Currency      string              `json:"currency,omitempty"`

	Unit *BookableUnit `gorm:"foreignKey:unit_id" json:"unit,omitempty"`
	User *User         `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}
