package models

import (
	"travleap/src/types"
)

// BookableUnit is a sellable capacity pool: a room type and date, a car
// class, a tour departure and so on. Committed counts both held and
// confirmed quantities; committed never exceeds capacity.
type BookableUnit struct {
	ID        uint               `gorm:"primarykey" json:"id"`
	Category  types.UnitCategory `json:"category,omitempty"`
	Name      string             `json:"name,omitempty"`
	Slug      string             `gorm:"uniqueIndex" json:"slug,omitempty"`
	Price     float64            `json:"price"`
	Currency  string             `json:"currency,omitempty"`
	Capacity  uint               `json:"capacity"`
	Committed uint               `gorm:"default:0" json:"committed"`
	PartnerID uint               `json:"partner_id,omitempty"`

	Partner *Partner `gorm:"foreignKey:partner_id" json:"partner,omitempty"`

	Stats *UnitStats `gorm:"-" json:"stats,omitempty"`

	types.Timestamps
}

type UnitStats struct {
	UnitID    uint `json:"unit_id,omitempty"`
	Free      uint `json:"free"`
	Committed uint `json:"committed"`
}
