package utils

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"travleap/src/config"
	"travleap/src/db"
	"travleap/src/lib"
	"travleap/src/models"
	"travleap/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConfirmOrder settles every payment in the order after one gateway
// verification of the amount due. Redeemed points reduce the cash due, while
// accrual stays on the pre-discount amount. Confirming an already-settled
// order is a successful no-op reporting the stored values. Point accrual is
// persisted on the payment row the first time only: a second call never
// re-earns.
func ConfirmOrder(ctx context.Context, orderId uuid.UUID) (*types.SettlementResult, error) {
	gateway := lib.GetPaymentGateway()
	db := db.GetDb()
	result := &types.SettlementResult{OrderID: orderId}
	var owner uint
	err := db.Transaction(func(tx *gorm.DB) error {
		payments, err := OrdersIn(tx).Payments(orderId)
		if err != nil {
			return err
		}
		owner = payments[0].UserID

		var totalDue float64
		var pending, paid []models.Payment
		for _, p := range payments {
			switch p.Status {
			case types.PAYMENT_PENDING:
				totalDue += p.Amount - float64(p.PointsUsed)
				pending = append(pending, p)
			case types.PAYMENT_PAID:
				totalDue += p.Amount - float64(p.PointsUsed)
				paid = append(paid, p)
			}
		}
		if len(pending) == 0 {
			if len(paid) == 0 {
				cancelled := true
				for _, p := range payments {
					if p.Status != types.PAYMENT_CANCELED {
						cancelled = false
					}
				}
				if cancelled {
					return types.ErrHoldExpired
				}
				return fmt.Errorf("order [%s] has no payable payments", orderId)
			}
			settled := true
			for _, p := range paid {
				if p.PointsEarned == nil {
					settled = false
				}
			}
			if settled {
				result.AlreadySettled = true
				for _, p := range paid {
					result.TotalAmount += p.Amount
					result.PointsAccrued += *p.PointsEarned
					result.PointsRedeemed += p.PointsUsed
					result.BookingIDs = append(result.BookingIDs, p.BookingID)
				}
				return nil
			}
			// payments charged on an earlier attempt but accrual never
			// landed, retry heals it below without another gateway call
		} else {
			now := time.Now()
			for _, p := range pending {
				booking := p.Booking
				if booking.Status == types.BOOKING_HELD && booking.HoldExpiresAt != nil && booking.HoldExpiresAt.Before(now) {
					return types.ErrHoldExpired
				}
			}

			conf, err := gateway.ConfirmOrder(ctx, orderId.String())
			if err != nil {
				return err
			}
			if !conf.Approved || conf.Amount != totalDue {
				log.Printf("Gateway mismatch for Order [%s]: approved=%v charged=%.2f due=%.2f\n", orderId, conf.Approved, conf.Amount, totalDue)
				go AlertOps("Payment gateway mismatch", fmt.Sprintf("Order %s: gateway reports approved=%v charged=%.2f but %.2f is due. Settlement aborted.", orderId, conf.Approved, conf.Amount, totalDue))
				return types.ErrGatewayMismatch
			}

			for _, p := range pending {
				res := tx.Model(&models.Payment{}).
					Where("id = ? AND status = ?", p.ID, types.PAYMENT_PENDING).
					Updates(map[string]any{"status": types.PAYMENT_PAID, "gateway_txn_id": conf.TransactionID})
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					continue
				}
				upd := tx.Model(&models.Booking{}).
					Where("id = ? AND status = ?", p.BookingID, types.BOOKING_HELD).
					Updates(map[string]any{
						"status":          types.BOOKING_CONFIRMED,
						"payment_status":  types.PAYMENT_PAID,
						"hold_expires_at": nil,
					})
				if upd.Error != nil {
					return upd.Error
				}
				if upd.RowsAffected == 0 {
					// hold lapsed between the read and this update
					return types.ErrHoldExpired
				}
			}
		}

		var settled []models.Payment
		if err := tx.Where("order_id = ? AND status = ?", orderId, types.PAYMENT_PAID).
			Order("created_at asc").
			Find(&settled).Error; err != nil {
			return err
		}
		percent := config.PointAccrualPercent()
		for _, p := range settled {
			result.TotalAmount += p.Amount
			result.PointsRedeemed += p.PointsUsed
			result.BookingIDs = append(result.BookingIDs, p.BookingID)
			if p.PointsEarned != nil {
				result.PointsAccrued += *p.PointsEarned
				continue
			}
			points := int64(math.Floor(p.Amount * percent / 100))
			res := tx.Model(&models.Payment{}).
				Where("id = ? AND points_earned IS NULL", p.ID).
				Update("points_earned", points)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			pid := p.ID
			if _, err := AppendLedgerEntry(tx, p.UserID, points, types.LEDGER_EARN, &pid); err != nil {
				return err
			}
			if p.PointsUsed > 0 {
				if _, err := AppendLedgerEntry(tx, p.UserID, -p.PointsUsed, types.LEDGER_USE, &pid); err != nil {
					return err
				}
			}
			result.PointsAccrued += points
		}
		log.Printf("Order [%s] settled: %d payments, %.2f total, %d points accrued\n", orderId, len(settled), result.TotalAmount, result.PointsAccrued)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.AlreadySettled {
		if err := PushBalance(owner); err != nil {
			ReportCrossStoreFailure(owner, err)
		}
	}
	return result, nil
}
