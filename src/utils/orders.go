package utils

import (
	"travleap/src/models"
	"travleap/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderGroup resolves the full sibling set of payments behind an order.
// Settlement and refunds operate over Payments(), never over a single row.
type OrderGroup interface {
	Payments(orderId uuid.UUID) ([]models.Payment, error)
	Owner(orderId uuid.UUID) (uint, error)
	Resolve(ref string) (uuid.UUID, error)
}

type orderGroup struct {
	tx *gorm.DB
}

func OrdersIn(tx *gorm.DB) OrderGroup {
	return &orderGroup{tx: tx}
}

func (g *orderGroup) Payments(orderId uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := g.tx.
		Where("order_id = ?", orderId).
		Preload("Booking").
		Order("created_at asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, types.ErrOrderNotFound
	}
	return payments, nil
}

func (g *orderGroup) Owner(orderId uuid.UUID) (uint, error) {
	payments, err := g.Payments(orderId)
	if err != nil {
		return 0, err
	}
	return payments[0].UserID, nil
}

// Resolve accepts either an order id or a payment id and returns the order id.
// Callers holding a single payment reference still act on the whole order.
func (g *orderGroup) Resolve(ref string) (uuid.UUID, error) {
	rid, err := uuid.Parse(ref)
	if err != nil {
		return uuid.Nil, types.ErrOrderNotFound
	}
	var payment models.Payment
	if err := g.tx.Where("id = ?", rid).First(&payment).Error; err == nil {
		return payment.OrderID, nil
	}
	var count int64
	if err := g.tx.Model(&models.Payment{}).Where("order_id = ?", rid).Count(&count).Error; err != nil {
		return uuid.Nil, err
	}
	if count == 0 {
		return uuid.Nil, types.ErrOrderNotFound
	}
	return rid, nil
}
