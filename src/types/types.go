package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, &a)
	case string:
		return json.Unmarshal([]byte(v), &a)
	default:
		return errors.New("type assertion to []byte failed")
	}
}

// Handler consumes a raw queue message body
type Handler func(string)

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

type UnitCategory string

const (
	CATEGORY_LODGING    UnitCategory = "lodging"
	CATEGORY_RENTCAR    UnitCategory = "rentcar"
	CATEGORY_TOUR       UnitCategory = "tour"
	CATEGORY_FOOD       UnitCategory = "food"
	CATEGORY_EVENT      UnitCategory = "event"
	CATEGORY_EXPERIENCE UnitCategory = "experience"
)

// BookingNumberPrefixes maps a unit category to the booking number prefix
// customers see on their receipts.
var BookingNumberPrefixes = map[UnitCategory]string{
	CATEGORY_LODGING:    "LD",
	CATEGORY_RENTCAR:    "RC",
	CATEGORY_TOUR:       "TR",
	CATEGORY_FOOD:       "FD",
	CATEGORY_EVENT:      "EV",
	CATEGORY_EXPERIENCE: "EX",
}

type BookingStatus string

const (
	BOOKING_HELD      BookingStatus = "held"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELED  BookingStatus = "cancelled"
	BOOKING_COMPLETED BookingStatus = "completed"
)

type PaymentStatus string

const (
	PAYMENT_PENDING  PaymentStatus = "pending"
	PAYMENT_PAID     PaymentStatus = "paid"
	PAYMENT_REFUNDED PaymentStatus = "refunded"
	PAYMENT_CANCELED PaymentStatus = "canceled"
)

type LedgerEntryType string

const (
	LEDGER_EARN   LedgerEntryType = "earn"
	LEDGER_USE    LedgerEntryType = "use"
	LEDGER_REFUND LedgerEntryType = "refund"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateHoldRequestBody struct {
	UnitID uint `json:"unit_id" binding:"required"`
	Qty    uint `json:"qty" binding:"required,min=1"`
}

type CreateOrderRequestBody struct {
	BookingIDs []uint `json:"booking_ids" binding:"required,min=1"`
	UsePoints  int64  `json:"use_points,omitempty" binding:"omitempty,min=0"`
}

type RefundRequestBody struct {
	Ref    string `json:"ref" binding:"required"`
	Reason string `json:"reason,omitempty"`
}

type CreatePartnerRequestBody struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"email" binding:"required,email"`
}

type CreateUnitRequestBody struct {
	Name      string  `json:"name" binding:"required"`
	Category  string  `json:"category" binding:"required,unitcategory"`
	Price     float64 `json:"price" binding:"required,gt=0"`
	Currency  string  `json:"currency" binding:"required"`
	Capacity  uint    `json:"capacity" binding:"required,min=1"`
	PartnerID uint    `json:"partner" binding:"required"`
}

type SettlementResult struct {
	OrderID        uuid.UUID `json:"order_id"`
	TotalAmount    float64   `json:"total_amount"`
	PointsAccrued  int64     `json:"points_accrued"`
	PointsRedeemed int64     `json:"points_redeemed"`
	BookingIDs     []uint    `json:"booking_ids"`
	AlreadySettled bool      `json:"already_settled,omitempty"`
}

type RefundResult struct {
	OrderID           uuid.UUID `json:"order_id"`
	ReversedAmount    float64   `json:"reversed_amount"`
	PointsDelta       int64     `json:"points_delta"`
	RefundedPayments  []string  `json:"refunded_payments,omitempty"`
	CancelledBookings []uint    `json:"cancelled_bookings,omitempty"`
	AlreadyProcessed  bool      `json:"already_processed,omitempty"`
}
