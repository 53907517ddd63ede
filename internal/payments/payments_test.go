package payments

import (
	"bytes"
	"context"
	"fmt"
	"strings"
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
	if err := conn.AutoMigrate(&models.PaymentRecord{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

func TestCreateAndListNewestFirst(t *testing.T) {
	t.Parallel()

	repo := NewRepository(openTestDB(t))

	first := &models.PaymentRecord{
		Method:      enums.PaymentMethodCash,
		AmountCents: 2500,
		Reference:   "POS-1700000000001",
		ItemCount:   2,
		CreatedAt:   time.Date(2026, 1, 14, 9, 0, 0, 0, time.UTC),
	}
	second := &models.PaymentRecord{
		Method:      enums.PaymentMethodMobileMoney,
		AmountCents: 1550,
		Reference:   "MPA1B2C3D4E",
		ItemCount:   1,
		CreatedAt:   time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), first))
	require.NoError(t, repo.Create(context.Background(), second))
	assert.NotEqual(t, uuid.Nil, first.ID)

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "MPA1B2C3D4E", records[0].Reference)
	assert.Equal(t, "POS-1700000000001", records[1].Reference)
}

func TestCreateRejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	repo := NewRepository(openTestDB(t))

	err := repo.Create(context.Background(), &models.PaymentRecord{
		Method:      "barter",
		AmountCents: 100,
		Reference:   "POS-1",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = repo.Create(context.Background(), &models.PaymentRecord{
		Method:      enums.PaymentMethodCash,
		AmountCents: 100,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestFindByReference(t *testing.T) {
	t.Parallel()

	repo := NewRepository(openTestDB(t))
	record := &models.PaymentRecord{
		Method:      enums.PaymentMethodCard,
		AmountCents: 999,
		Reference:   "POS-1700000000002",
		ItemCount:   1,
	}
	require.NoError(t, repo.Create(context.Background(), record))

	found, err := repo.FindByReference(context.Background(), "POS-1700000000002")
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)

	_, err = repo.FindByReference(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 14, 14, 5, 9, 0, time.Local)
	records := []models.PaymentRecord{
		{
			Method:      enums.PaymentMethodMobileMoney,
			AmountCents: 2050,
			Reference:   "MPA1B2C3D4E",
			ItemCount:   3,
			CreatedAt:   ts,
		},
		{
			Method:      enums.PaymentMethodCash,
			AmountCents: 1000,
			Reference:   "POS-1700000000003",
			ItemCount:   1,
			CreatedAt:   ts,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Time,Payment Method,Amount,Items,Reference", lines[0])
	assert.Equal(t, `"1/14/2026, 2:05:09 PM",Mobile Money,$20.50,3,MPA1B2C3D4E`, lines[1])
	assert.Equal(t, `"1/14/2026, 2:05:09 PM",Cash,$10.00,1,POS-1700000000003`, lines[2])
}

func TestWriteCSVEmptyLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "Time,Payment Method,Amount,Items,Reference\n", buf.String())
}
