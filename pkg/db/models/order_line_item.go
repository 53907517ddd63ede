package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem snapshots one cart line at settlement time.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Quantity       int       `gorm:"column:quantity;not null" json:"quantity"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null" json:"unit_price_cents"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (OrderLineItem) TableName() string { return "order_line_items" }
