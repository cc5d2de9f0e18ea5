package models

import (
	"time"

	"github.com/google/uuid"
)

// PointLedgerEntry is append-only. The ledger is the source of truth for
// user point totals; the balance store is derived from it.
type PointLedgerEntry struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	UserID    uint       `gorm:"index" json:"user_id"`
	Delta     int64      `json:"delta"`
	EntryType string     `json:"entry_type"`
	PaymentID *uuid.UUID `gorm:"index;type:char(36)" json:"payment_id,omitempty"`
	Balance   int64      `json:"balance"`
	CreatedAt time.Time  `gorm:"autoCreateTime:nano" json:"created_at"`
}

// PointBalance lives in the balance store, not the ledger store. It is a
// cached read model pushed after ledger commits and rebuilt by
// reconciliation.
type PointBalance struct {
	UserID      uint      `gorm:"primarykey" json:"user_id"`
	TotalPoints int64     `json:"total_points"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
