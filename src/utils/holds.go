package utils

import (
	"fmt"
	"log"
	"strings"
	"time"

	"travleap/src/config"
	"travleap/src/db"
	"travleap/src/models"
	"travleap/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewBookingNumber builds a short human-readable reference, prefixed per vertical.
func NewBookingNumber(category types.UnitCategory) string {
	prefix, ok := types.BookingNumberPrefixes[category]
	if !ok {
		prefix = "BK"
	}
	ref := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(ref))
}

// CreateHold reserves capacity on a unit and creates a held Booking. The
// capacity check and the commit happen in a single conditional UPDATE so two
// concurrent holds can never oversell the unit.
func CreateHold(params *types.CreateHoldRequestBody, userId uint) (*models.Booking, error) {
	db := db.GetDb()
	var booking *models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		var unit models.BookableUnit
		if err := tx.Where(&models.BookableUnit{ID: params.UnitID}).First(&unit).Error; err != nil {
			return err
		}
		res := tx.Model(&models.BookableUnit{}).
			Where("id = ? AND committed + ? <= capacity", unit.ID, params.Qty).
			UpdateColumn("committed", gorm.Expr("committed + ?", params.Qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrCapacityExceeded
		}
		expiresAt := time.Now().Add(config.HOLD_TTL)
		booking = &models.Booking{
			BookingNo:     NewBookingNumber(unit.Category),
			UnitID:        unit.ID,
			UserID:        userId,
			Qty:           params.Qty,
			Status:        types.BOOKING_HELD,
			PaymentStatus: types.PAYMENT_PENDING,
			HoldExpiresAt: &expiresAt,
			UnitPrice:     unit.Price,
			Total:         unit.Price * float64(params.Qty),
			Currency:      unit.Currency,
		}
		return tx.Create(booking).Error
	})
	if err != nil {
		return nil, err
	}
	go scheduleHoldExpiry(booking)
	return booking, nil
}

func scheduleHoldExpiry(booking *models.Booking) {
	payloadId := uuid.NewString()
	jobTask := models.JobTask{
		Name:      fmt.Sprintf("hold_expiry_%d", booking.ID),
		JobType:   "OneTimeJobStartDateTime",
		RunsAt:    *booking.HoldExpiresAt,
		PayloadID: payloadId,
		Payload: types.JSONB{
			"id":               booking.ID,
			"payloadId":        payloadId,
			"topic":            "HoldsToExpire",
			"producerClientId": "holds",
		},
		Source:     "holds",
		SourceType: "booking",
		Topic:      "HoldsToExpire",
	}
	if _, err := jobTask.CreateAndEnqueueJobTask(jobTask); err != nil {
		log.Printf("Error scheduling expiry for Booking [%d]: %s\n", booking.ID, err.Error())
	}
}

// ExpireHold cancels a lapsed hold and releases its capacity. Safe to call any
// number of times and from both the sweeper and the scheduled job: only the
// first call past the deadline flips the status, everything else is a no-op.
func ExpireHold(bookingId uint) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.Where(&models.Booking{ID: bookingId}).First(&booking).Error; err != nil {
			return err
		}
		if booking.Status != types.BOOKING_HELD {
			return nil
		}
		if booking.HoldExpiresAt == nil || booking.HoldExpiresAt.After(time.Now()) {
			return nil
		}
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", bookingId, types.BOOKING_HELD).
			Updates(map[string]any{"status": types.BOOKING_CANCELED, "hold_expires_at": nil})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Model(&models.BookableUnit{}).
			Where("id = ? AND committed >= ?", booking.UnitID, booking.Qty).
			UpdateColumn("committed", gorm.Expr("committed - ?", booking.Qty)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Payment{}).
			Where("booking_id = ? AND status = ?", bookingId, types.PAYMENT_PENDING).
			Update("status", types.PAYMENT_CANCELED).Error; err != nil {
			return err
		}
		log.Printf("Hold released for Booking [%d]\n", bookingId)
		return nil
	})
}

// EnsureHoldCurrent expires the hold if its deadline lapsed and returns the
// booking's current state. Readers never observe a live hold past its TTL.
func EnsureHoldCurrent(bookingId uint) (*models.Booking, error) {
	db := db.GetDb()
	var booking models.Booking
	if err := db.Preload("Unit").Where(&models.Booking{ID: bookingId}).First(&booking).Error; err != nil {
		return nil, err
	}
	if booking.Status == types.BOOKING_HELD && booking.HoldExpiresAt != nil && booking.HoldExpiresAt.Before(time.Now()) {
		if err := ExpireHold(bookingId); err != nil {
			return nil, err
		}
		if err := db.Preload("Unit").Where(&models.Booking{ID: bookingId}).First(&booking).Error; err != nil {
			return nil, err
		}
	}
	return &booking, nil
}

// SweepExpiredHolds releases every hold past its deadline. Runs on a schedule
// as a backstop for scheduled jobs lost to broker downtime.
func SweepExpiredHolds() (int, error) {
	db := db.GetDb()
	var ids []uint
	if err := db.Model(&models.Booking{}).
		Where("status = ? AND hold_expires_at < ?", types.BOOKING_HELD, time.Now()).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	released := 0
	for _, id := range ids {
		if err := ExpireHold(id); err != nil {
			log.Printf("Error expiring hold for Booking [%d]: %s\n", id, err.Error())
			continue
		}
		released++
	}
	if released > 0 {
		log.Printf("Sweeper released %d expired holds\n", released)
	}
	return released, nil
}
