package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
	"github.com/kennahq/kenna-pos-backend/pkg/enums"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.OrderRecord{}, &models.OrderLineItem{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

func sampleOrder(reference string, createdAt time.Time) *models.OrderRecord {
	return &models.OrderRecord{
		Reference:          reference,
		Customer:           "Walk-in Customer",
		TotalCents:         3550,
		Status:             enums.OrderStatusPaid,
		PaymentMethod:      enums.PaymentMethodCash,
		PaymentAmountCents: 4000,
		ChangeCents:        450,
		Items: []models.OrderLineItem{
			{ProductID: uuid.New(), Name: "Widget A", Quantity: 2, UnitPriceCents: 1000},
			{ProductID: uuid.New(), Name: "Gadget B", Quantity: 1, UnitPriceCents: 1550},
		},
		CreatedAt: createdAt,
	}
}

func TestCreateAssignsIDsAndLinksItems(t *testing.T) {
	t.Parallel()

	repo := NewRepository(openTestDB(t))
	order := sampleOrder("POS-1700000000010", time.Now())
	require.NoError(t, repo.Create(context.Background(), order))

	assert.NotEqual(t, uuid.Nil, order.ID)
	for _, item := range order.Items {
		assert.NotEqual(t, uuid.Nil, item.ID)
		assert.Equal(t, order.ID, item.OrderID)
	}

	found, err := repo.FindByReference(context.Background(), "POS-1700000000010")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	require.Len(t, found.Items, 2)
	assert.Equal(t, 3550, found.TotalCents)
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	repo := NewRepository(openTestDB(t))

	order := sampleOrder("", time.Now())
	err := repo.Create(context.Background(), order)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	order = sampleOrder("POS-1700000000011", time.Now())
	order.Items = nil
	err = repo.Create(context.Background(), order)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	order = sampleOrder("POS-1700000000012", time.Now())
	order.Status = "shipped"
	err = repo.Create(context.Background(), order)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListNewestFirstWithItems(t *testing.T) {
	t.Parallel()

	repo := NewRepository(openTestDB(t))
	older := sampleOrder("POS-1700000000013", time.Date(2026, 1, 14, 9, 0, 0, 0, time.UTC))
	newer := sampleOrder("POS-1700000000014", time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(context.Background(), older))
	require.NoError(t, repo.Create(context.Background(), newer))

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "POS-1700000000014", records[0].Reference)
	assert.Equal(t, "POS-1700000000013", records[1].Reference)
	assert.Len(t, records[0].Items, 2)
}

func TestFindByReferenceNotFound(t *testing.T) {
	t.Parallel()

	repo := NewRepository(openTestDB(t))
	_, err := repo.FindByReference(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
