package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kennahq/kenna-pos-backend/pkg/enums"
)

// OrderRecord is the order-side view of a settled checkout. Immutable once
// created; the reference doubles as the public order id.
type OrderRecord struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Reference          string              `gorm:"column:reference;not null;uniqueIndex" json:"reference"`
	Customer           string              `gorm:"column:customer;not null" json:"customer"`
	TotalCents         int                 `gorm:"column:total_cents;not null" json:"total_cents"`
	Status             enums.OrderStatus   `gorm:"column:status;not null" json:"status"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;not null" json:"payment_method"`
	PaymentAmountCents int                 `gorm:"column:payment_amount_cents;not null" json:"payment_amount_cents"`
	ChangeCents        int                 `gorm:"column:change_cents;not null;default:0" json:"change_cents"`
	Items              []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (OrderRecord) TableName() string { return "order_records" }
