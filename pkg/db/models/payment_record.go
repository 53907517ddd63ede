package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kennahq/kenna-pos-backend/pkg/enums"
)

// PaymentRecord is one settled charge in the append-only transaction log.
// Reference is the gateway transaction id for mobile-money payments and a
// locally generated POS reference otherwise.
type PaymentRecord struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Method      enums.PaymentMethod `gorm:"column:method;not null" json:"method"`
	AmountCents int                 `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Reference   string              `gorm:"column:reference;not null;uniqueIndex" json:"reference"`
	ItemCount   int                 `gorm:"column:item_count;not null" json:"item_count"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (PaymentRecord) TableName() string { return "payment_records" }
