package utils

import (
	"fmt"
	"time"

	"travleap/src/db"
	"travleap/src/models"
	"travleap/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateOrder turns a set of held bookings into one order with one pending
// payment per booking, all sharing the order id. Redeemed points are allocated
// across the payments in creation order, capped per payment at its amount.
func CreateOrder(userId uint, params *types.CreateOrderRequestBody) (uuid.UUID, []models.Payment, error) {
	orderId := uuid.New()
	var payments []models.Payment
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		remaining := params.UsePoints
		if remaining < 0 {
			return fmt.Errorf("invalid points redemption: %d", remaining)
		}
		if remaining > 0 {
			balance, err := LedgerSum(tx, userId)
			if err != nil {
				return err
			}
			if remaining > balance {
				return types.ErrInsufficientPoints
			}
		}
		now := time.Now()
		for _, bookingId := range params.BookingIDs {
			var booking models.Booking
			if err := tx.Where(&models.Booking{ID: bookingId, UserID: userId}).First(&booking).Error; err != nil {
				return err
			}
			if booking.Status != types.BOOKING_HELD {
				return fmt.Errorf("booking [%d] is not holding inventory", bookingId)
			}
			if booking.HoldExpiresAt != nil && booking.HoldExpiresAt.Before(now) {
				return types.ErrHoldExpired
			}
			var active int64
			if err := tx.Model(&models.Payment{}).
				Where("booking_id = ? AND status IN ?", bookingId, []types.PaymentStatus{types.PAYMENT_PENDING, types.PAYMENT_PAID}).
				Count(&active).Error; err != nil {
				return err
			}
			if active > 0 {
				return fmt.Errorf("booking [%d] already has an active payment", bookingId)
			}
			use := int64(0)
			if remaining > 0 {
				use = remaining
				if cap := int64(booking.Total); use > cap {
					use = cap
				}
				remaining -= use
			}
			payment := models.Payment{
				ID:         uuid.New(),
				OrderID:    orderId,
				BookingID:  booking.ID,
				UserID:     userId,
				Amount:     booking.Total,
				Currency:   booking.Currency,
				Status:     types.PAYMENT_PENDING,
				PointsUsed: use,
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
			payments = append(payments, payment)
		}
		if remaining > 0 {
			return fmt.Errorf("points redemption %d exceeds order total", params.UsePoints)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, nil, err
	}
	return orderId, payments, nil
}
