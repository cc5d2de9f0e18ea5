package models

import (
	"travleap/src/types"
)

type Partner struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Name         string `json:"name,omitempty"`
	Slug         string `gorm:"uniqueIndex" json:"slug,omitempty"`
	ContactEmail string `json:"email,omitempty"`

	Units []BookableUnit `gorm:"foreignKey:partner_id" json:"units,omitempty"`

	types.Timestamps
}
