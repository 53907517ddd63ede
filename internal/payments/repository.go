package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
)

// Repository is the append-only transaction log. Records are never updated
// or deleted once written.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.PaymentRecord) error
	List(ctx context.Context) ([]models.PaymentRecord, error)
	FindByReference(ctx context.Context, reference string) (*models.PaymentRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payment log repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.PaymentRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if !record.Method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if record.Reference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// List returns the full log newest first.
func (r *repository) List(ctx context.Context) ([]models.PaymentRecord, error) {
	var records []models.PaymentRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, err
	}
	return &record, nil
}
