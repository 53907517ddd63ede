package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a sellable catalog entry. Stock is decremented only by checkout
// settlement and never goes negative.
type Product struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	Category   string    `gorm:"column:category;not null" json:"category"`
	PriceCents int       `gorm:"column:price_cents;not null" json:"price_cents"`
	Stock      int       `gorm:"column:stock;not null;default:0" json:"stock"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table regardless of gorm pluralization settings.
func (Product) TableName() string { return "products" }
