package utils

import (
	"context"
	"os"
	"testing"

	"travleap/src/db"
	"travleap/src/models"
	"travleap/src/types"

	"github.com/stretchr/testify/assert"
)

func TestRefundOrderReversesAllSiblings(t *testing.T) {
	newTestStores(t)
	user := seedUser(t)
	unit := seedUnit(t, 10, 100)
	orderId, payments := heldOrder(t, user, unit, 1, 2, 3)
	gw := newFakeGateway(true, 600)

	_, err := ConfirmOrder(context.Background(), orderId)
	assert.Nil(t, err)
	assert.Equal(t, uint(6), reloadUnit(t, unit.ID).Committed)

	// refund by a single payment reference still reverses the whole order
	result, err := RefundOrder(context.Background(), payments[0].ID.String(), "customer request", "admin:1")
	assert.Nil(t, err)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, orderId, result.OrderID)
	assert.Equal(t, float64(600), result.ReversedAmount)
	assert.Len(t, result.RefundedPayments, 3)
	assert.Len(t, result.CancelledBookings, 3)
	assert.Equal(t, 3, gw.refundCalls)

	for _, p := range payments {
		fresh := reloadPayment(t, p.ID)
		assert.Equal(t, types.PAYMENT_REFUNDED, fresh.Status)
		booking := reloadBooking(t, p.BookingID)
		assert.Equal(t, types.BOOKING_CANCELED, booking.Status)
		assert.Equal(t, types.PAYMENT_REFUNDED, booking.PaymentStatus)
	}
	assert.Equal(t, uint(0), reloadUnit(t, unit.ID).Committed)

	sum, err := LedgerSum(db.GetDb(), user.ID)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), sum)

	var audits int64
	assert.Nil(t, db.GetDb().Model(&models.AuditLog{}).Where("type = ?", "refund").Count(&audits).Error)
	assert.Equal(t, int64(3), audits)
}

func TestRefundOrderIdempotent(t *testing.T) {
	newTestStores(t)
	user := seedUser(t)
	unit := seedUnit(t, 5, 10000)
	orderId, _ := heldOrder(t, user, unit, 1)
	gw := newFakeGateway(true, 10000)

	_, err := ConfirmOrder(context.Background(), orderId)
	assert.Nil(t, err)

	first, err := RefundOrder(context.Background(), orderId.String(), "", "admin:1")
	assert.Nil(t, err)
	assert.False(t, first.AlreadyProcessed)
	assert.Equal(t, 1, gw.refundCalls)

	second, err := RefundOrder(context.Background(), orderId.String(), "", "admin:1")
	assert.Nil(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, 1, gw.refundCalls)

	sum, err := LedgerSum(db.GetDb(), user.ID)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), sum)
}

func TestRefundReversesRecordedEarnAmount(t *testing.T) {
	newTestStores(t)
	user := seedUser(t)
	unit := seedUnit(t, 5, 10000)
	orderId, payments := heldOrder(t, user, unit, 1)
	newFakeGateway(true, 10000)

	_, err := ConfirmOrder(context.Background(), orderId)
	assert.Nil(t, err)
	payment := reloadPayment(t, payments[0].ID)
	assert.Equal(t, int64(200), *payment.PointsEarned)

	// accrual rule changes between settlement and refund
	os.Setenv("POINT_ACCRUAL_PERCENT", "5")
	defer os.Unsetenv("POINT_ACCRUAL_PERCENT")

	result, err := RefundOrder(context.Background(), orderId.String(), "", "admin:1")
	assert.Nil(t, err)
	assert.Equal(t, int64(-200), result.PointsDelta)

	var reversal models.PointLedgerEntry
	assert.Nil(t, db.GetDb().
		Where("user_id = ? AND entry_type = ?", user.ID, string(types.LEDGER_REFUND)).
		First(&reversal).Error)
	assert.Equal(t, int64(-200), reversal.Delta)
}

func TestRefundRestoresRedeemedPoints(t *testing.T) {
	newTestStores(t)
	user := seedUser(t)
	unit := seedUnit(t, 5, 10000)

	_, err := AppendLedgerEntry(db.GetDb(), user.ID, 500, types.LEDGER_EARN, nil)
	assert.Nil(t, err)

	booking, err := CreateHold(&types.CreateHoldRequestBody{UnitID: unit.ID, Qty: 1}, user.ID)
	assert.Nil(t, err)
	orderId, _, err := CreateOrder(user.ID, &types.CreateOrderRequestBody{
		BookingIDs: []uint{booking.ID},
		UsePoints:  300,
	})
	assert.Nil(t, err)
	gw := newFakeGateway(true, 9700)

	_, err = ConfirmOrder(context.Background(), orderId)
	assert.Nil(t, err)

	result, err := RefundOrder(context.Background(), orderId.String(), "", "admin:1")
	assert.Nil(t, err)
	// -200 earned reversal +300 redeemed restore
	assert.Equal(t, int64(100), result.PointsDelta)
	// gateway returns only the cash collected, not the redeemed portion
	assert.Equal(t, []float64{9700}, gw.refunded)
	assert.Equal(t, float64(9700), result.ReversedAmount)

	sum, err := LedgerSum(db.GetDb(), user.ID)
	assert.Nil(t, err)
	assert.Equal(t, int64(500), sum)
}

func TestRefundPendingOrderCancels(t *testing.T) {
	newTestStores(t)
	user := seedUser(t)
	unit := seedUnit(t, 5, 100)
	orderId, payments := heldOrder(t, user, unit, 1, 1)
	gw := newFakeGateway(true, 200)

	result, err := RefundOrder(context.Background(), orderId.String(), "changed plans", "user:1")
	assert.Nil(t, err)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, float64(0), result.ReversedAmount)
	assert.Len(t, result.CancelledBookings, 2)
	assert.Equal(t, 0, gw.refundCalls)

	for _, p := range payments {
		assert.Equal(t, types.PAYMENT_CANCELED, reloadPayment(t, p.ID).Status)
		assert.Equal(t, types.BOOKING_CANCELED, reloadBooking(t, p.BookingID).Status)
	}
	assert.Equal(t, uint(0), reloadUnit(t, unit.ID).Committed)
}

func TestRefundGatewayFailureLeavesStateUntouched(t *testing.T) {
	newTestStores(t)
	user := seedUser(t)
	unit := seedUnit(t, 5, 10000)
	orderId, payments := heldOrder(t, user, unit, 1)
	gw := newFakeGateway(true, 10000)

	_, err := ConfirmOrder(context.Background(), orderId)
	assert.Nil(t, err)

	gw.refundErr = assert.AnError
	_, err = RefundOrder(context.Background(), orderId.String(), "", "admin:1")
	assert.NotNil(t, err)

	payment := reloadPayment(t, payments[0].ID)
	assert.Equal(t, types.PAYMENT_PAID, payment.Status)
	assert.Equal(t, types.BOOKING_CONFIRMED, reloadBooking(t, payment.BookingID).Status)

	sum, err := LedgerSum(db.GetDb(), user.ID)
	assert.Nil(t, err)
	assert.Equal(t, int64(200), sum)
}

func TestRefundOrderNotFound(t *testing.T) {
	newTestStores(t)
	newFakeGateway(true, 0)

	_, err := RefundOrder(context.Background(), "not-a-uuid", "", "admin:1")
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
}
