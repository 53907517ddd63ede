package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
)

// Repository is the order log. Orders are written once at settlement with
// their line items and read back for history views.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.OrderRecord) error
	List(ctx context.Context) ([]models.OrderRecord, error)
	FindByReference(ctx context.Context, reference string) (*models.OrderRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create persists the order and its line items in one write. IDs are
// assigned here so sqlite-backed tests do not depend on DB defaults.
func (r *repository) Create(ctx context.Context, order *models.OrderRecord) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Reference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}
	if !order.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if len(order.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line item")
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

// List returns the full order history newest first, items included.
func (r *repository) List(ctx context.Context) ([]models.OrderRecord, error) {
	var records []models.OrderRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.OrderRecord, error) {
	var record models.OrderRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("reference = ?", reference).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return &record, nil
}
