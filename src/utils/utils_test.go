package utils

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"travleap/src/db"
	"travleap/src/lib"
	"travleap/src/models"
	"travleap/src/types"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("error opening test database: %s", err.Error())
	}
	inner, err := gdb.DB()
	if err != nil {
		t.Fatalf("error accessing inner db instance: %s", err.Error())
	}
	inner.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(migrate...); err != nil {
		t.Fatalf("error migration: %s", err.Error())
	}
	return gdb
}

func newTestStores(t *testing.T) {
	t.Helper()
	ldb := newTestDB(t,
		&models.User{},
		&models.Partner{},
		&models.BookableUnit{},
		&models.Booking{},
		&models.Payment{},
		&models.PointLedgerEntry{},
		&models.AuditLog{},
		&models.JobTask{},
	)
	db.NewDB(ldb)
	bdb := newTestDB(t, &models.PointBalance{})
	db.NewBalanceDB(bdb)
}

type fakeGateway struct {
	mu           sync.Mutex
	approved     bool
	amount       float64
	confirmErr   error
	refundErr    error
	confirmCalls int
	refundCalls  int
	refunded     []float64
}

func (f *fakeGateway) ConfirmOrder(ctx context.Context, orderId string) (*lib.GatewayConfirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmCalls++
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return &lib.GatewayConfirmation{
		OrderID:       orderId,
		Amount:        f.amount,
		Currency:      "usd",
		Approved:      f.approved,
		TransactionID: "pi_test",
	}, nil
}

func (f *fakeGateway) RefundPayment(ctx context.Context, transactionId string, amount float64) (*lib.GatewayRefund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refundCalls++
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	f.refunded = append(f.refunded, amount)
	return &lib.GatewayRefund{
		TransactionID: transactionId,
		RefundID:      fmt.Sprintf("re_test_%d", f.refundCalls),
		Amount:        amount,
	}, nil
}

func newFakeGateway(approved bool, amount float64) *fakeGateway {
	gw := &fakeGateway{approved: approved, amount: amount}
	lib.NewPaymentGateway(gw)
	return gw
}

func seedUser(t *testing.T) *models.User {
	t.Helper()
	db := db.GetDb()
	user := models.User{
		Name:  "Test User",
		Email: fmt.Sprintf("%s@example.com", uuid.NewString()),
		UID:   uuid.NewString(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("could not create user: %s", err.Error())
	}
	return &user
}

func seedUnit(t *testing.T, capacity uint, price float64) *models.BookableUnit {
	t.Helper()
	db := db.GetDb()
	partner := models.Partner{
		Name:         "Test Partner",
		Slug:         fmt.Sprintf("test-partner-%s", uuid.NewString()),
		ContactEmail: "partner@example.com",
	}
	if err := db.Create(&partner).Error; err != nil {
		t.Fatalf("could not create partner: %s", err.Error())
	}
	unit := models.BookableUnit{
		Category:  types.CATEGORY_LODGING,
		Name:      "Test Room",
		Slug:      fmt.Sprintf("test-room-%s", uuid.NewString()),
		Price:     price,
		Currency:  "usd",
		Capacity:  capacity,
		PartnerID: partner.ID,
	}
	if err := db.Create(&unit).Error; err != nil {
		t.Fatalf("could not create unit: %s", err.Error())
	}
	return &unit
}

func backdateHold(t *testing.T, bookingId uint) {
	t.Helper()
	db := db.GetDb()
	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Booking{}).
		Where("id = ?", bookingId).
		UpdateColumn("hold_expires_at", past).Error; err != nil {
		t.Fatalf("could not backdate hold: %s", err.Error())
	}
}

func reloadUnit(t *testing.T, unitId uint) *models.BookableUnit {
	t.Helper()
	db := db.GetDb()
	var unit models.BookableUnit
	if err := db.Where(&models.BookableUnit{ID: unitId}).First(&unit).Error; err != nil {
		t.Fatalf("could not reload unit: %s", err.Error())
	}
	return &unit
}

func reloadBooking(t *testing.T, bookingId uint) *models.Booking {
	t.Helper()
	db := db.GetDb()
	var booking models.Booking
	if err := db.Where(&models.Booking{ID: bookingId}).First(&booking).Error; err != nil {
		t.Fatalf("could not reload booking: %s", err.Error())
	}
	return &booking
}

func reloadPayment(t *testing.T, paymentId uuid.UUID) *models.Payment {
	t.Helper()
	db := db.GetDb()
	var payment models.Payment
	if err := db.Where("id = ?", paymentId).First(&payment).Error; err != nil {
		t.Fatalf("could not reload payment: %s", err.Error())
	}
	return &payment
}
