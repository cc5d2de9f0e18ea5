package utils

import (
	"context"
	"fmt"
	"log"

	"travleap/src/db"
	"travleap/src/lib"
	"travleap/src/models"
	"travleap/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefundOrder reverses a settled or partially settled order: every sibling
// payment, not just the referenced one. Gateway refunds are issued first so a
// gateway failure leaves local state untouched, each for the cash actually
// collected (the recorded amount net of redeemed points). Earned points are
// reversed at exactly the recorded amount on each payment row, never
// recomputed from the accrual rule in force today. Refunding an
// already-refunded order is a successful no-op.
func RefundOrder(ctx context.Context, ref string, reason string, initiator string) (*types.RefundResult, error) {
	db := db.GetDb()
	gateway := lib.GetPaymentGateway()
	orders := OrdersIn(db)
	orderId, err := orders.Resolve(ref)
	if err != nil {
		return nil, err
	}
	payments, err := orders.Payments(orderId)
	if err != nil {
		return nil, err
	}
	result := &types.RefundResult{OrderID: orderId}
	owner := payments[0].UserID

	actionable := false
	receipts := map[uuid.UUID]*lib.GatewayRefund{}
	for _, p := range payments {
		switch p.Status {
		case types.PAYMENT_PAID:
			actionable = true
			if p.GatewayTxnID == nil {
				return nil, fmt.Errorf("payment [%s] has no gateway reference", p.ID)
			}
			receipt, err := gateway.RefundPayment(ctx, *p.GatewayTxnID, p.Amount-float64(p.PointsUsed))
			if err != nil {
				return nil, err
			}
			receipts[p.ID] = receipt
		case types.PAYMENT_PENDING:
			actionable = true
		}
	}
	if !actionable {
		result.AlreadyProcessed = true
		return result, nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, stale := range payments {
			var payment models.Payment
			if err := tx.Where("id = ?", stale.ID).First(&payment).Error; err != nil {
				return err
			}
			pid := payment.ID
			switch payment.Status {
			case types.PAYMENT_PENDING:
				res := tx.Model(&models.Payment{}).
					Where("id = ? AND status = ?", pid, types.PAYMENT_PENDING).
					Update("status", types.PAYMENT_CANCELED)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					continue
				}
				if err := cancelBooking(tx, payment.BookingID, "", result); err != nil {
					return err
				}
				audit := models.AuditLog{
					ID:           uuid.New(),
					Type:         "cancel",
					Initiator:    initiator,
					OrderID:      &orderId,
					PaymentID:    &pid,
					AmountBefore: payment.Amount,
					AmountAfter:  payment.Amount,
					Metadata:     &types.JSONB{"reason": reason},
				}
				if err := tx.Create(&audit).Error; err != nil {
					return err
				}
			case types.PAYMENT_PAID:
				res := tx.Model(&models.Payment{}).
					Where("id = ? AND status = ?", pid, types.PAYMENT_PAID).
					Update("status", types.PAYMENT_REFUNDED)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					continue
				}
				var pointsDelta int64
				if payment.PointsEarned != nil && *payment.PointsEarned != 0 {
					if _, err := AppendLedgerEntry(tx, payment.UserID, -*payment.PointsEarned, types.LEDGER_REFUND, &pid); err != nil {
						return err
					}
					pointsDelta -= *payment.PointsEarned
				}
				if payment.PointsUsed > 0 {
					if _, err := AppendLedgerEntry(tx, payment.UserID, payment.PointsUsed, types.LEDGER_REFUND, &pid); err != nil {
						return err
					}
					pointsDelta += payment.PointsUsed
				}
				if err := cancelBooking(tx, payment.BookingID, types.PAYMENT_REFUNDED, result); err != nil {
					return err
				}
				var gatewayRef *string
				if receipt := receipts[pid]; receipt != nil {
					gatewayRef = &receipt.RefundID
				}
				audit := models.AuditLog{
					ID:           uuid.New(),
					Type:         "refund",
					Initiator:    initiator,
					OrderID:      &orderId,
					PaymentID:    &pid,
					AmountBefore: payment.Amount,
					AmountAfter:  0,
					PointsDelta:  pointsDelta,
					GatewayRef:   gatewayRef,
					Metadata:     &types.JSONB{"reason": reason},
				}
				if err := tx.Create(&audit).Error; err != nil {
					return err
				}
				result.ReversedAmount += payment.Amount - float64(payment.PointsUsed)
				result.PointsDelta += pointsDelta
				result.RefundedPayments = append(result.RefundedPayments, pid.String())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Order [%s] refunded by %s: %.2f reversed across %d payments\n", orderId, initiator, result.ReversedAmount, len(result.RefundedPayments))
	if err := PushBalance(owner); err != nil {
		ReportCrossStoreFailure(owner, err)
	}
	return result, nil
}

// cancelBooking flips a held or confirmed booking to cancelled and releases
// its capacity. paymentStatus is applied when non-empty.
func cancelBooking(tx *gorm.DB, bookingId uint, paymentStatus types.PaymentStatus, result *types.RefundResult) error {
	var booking models.Booking
	if err := tx.Where(&models.Booking{ID: bookingId}).First(&booking).Error; err != nil {
		return err
	}
	updates := map[string]any{"status": types.BOOKING_CANCELED, "hold_expires_at": nil}
	if paymentStatus != "" {
		updates["payment_status"] = paymentStatus
	}
	res := tx.Model(&models.Booking{}).
		Where("id = ? AND status IN ?", bookingId, []types.BookingStatus{types.BOOKING_HELD, types.BOOKING_CONFIRMED}).
		Updates(updates)
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
	result.CancelledBookings = append(result.CancelledBookings, bookingId)
	return nil
}
