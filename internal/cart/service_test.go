package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
)

type stubProductLoader struct {
	products map[uuid.UUID]*models.Product
}

func (s stubProductLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := s.products[id]; ok {
		clone := *product
		return &clone, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func newTestService(t *testing.T, products ...*models.Product) (Service, stubProductLoader) {
	t.Helper()
	loader := stubProductLoader{products: map[uuid.UUID]*models.Product{}}
	for _, product := range products {
		loader.products[product.ID] = product
	}
	svc, err := NewService(NewMemoryStore(), loader)
	require.NoError(t, err)
	return svc, loader
}

func product(name string, priceCents, stock int) *models.Product {
	return &models.Product{ID: uuid.New(), Name: name, Category: "Widgets", PriceCents: priceCents, Stock: stock}
}

func TestAddCreatesAndIncrementsLines(t *testing.T) {
	t.Parallel()

	widget := product("Widget A", 1000, 3)
	svc, _ := newTestService(t, widget)

	cart, err := svc.Add(context.Background(), "reg-1", widget.ID)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 1, cart.Lines[0].Quantity)

	cart, err = svc.Add(context.Background(), "reg-1", widget.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, 2000, cart.TotalCents())
}

func TestAddAtStockBoundIsNoOp(t *testing.T) {
	t.Parallel()

	widget := product("Widget A", 1000, 2)
	svc, _ := newTestService(t, widget)

	for i := 0; i < 5; i++ {
		_, err := svc.Add(context.Background(), "reg-1", widget.ID)
		require.NoError(t, err)
	}

	cart, err := svc.Get(context.Background(), "reg-1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
}

func TestAddRejectsOutOfStockProduct(t *testing.T) {
	t.Parallel()

	gone := product("Gone", 1000, 0)
	svc, _ := newTestService(t, gone)

	_, err := svc.Add(context.Background(), "reg-1", gone.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestUpdateQuantityClampsToStockBounds(t *testing.T) {
	t.Parallel()

	widget := product("Widget A", 1000, 5)
	svc, _ := newTestService(t, widget)

	_, err := svc.Add(context.Background(), "reg-1", widget.ID)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(context.Background(), "reg-1", widget.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Lines[0].Quantity)

	cart, err = svc.UpdateQuantity(context.Background(), "reg-1", widget.ID, -3)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 0, cart.Lines[0].Quantity)
	assert.Empty(t, cart.ActiveLines())
}

func TestUpdateQuantityUnknownLine(t *testing.T) {
	t.Parallel()

	widget := product("Widget A", 1000, 5)
	svc, _ := newTestService(t, widget)

	_, err := svc.UpdateQuantity(context.Background(), "reg-1", widget.ID, 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestRemoveDeletesLineUnconditionally(t *testing.T) {
	t.Parallel()

	widget := product("Widget A", 1000, 5)
	gadget := product("Gadget B", 1550, 5)
	svc, _ := newTestService(t, widget, gadget)

	_, err := svc.Add(context.Background(), "reg-1", widget.ID)
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), "reg-1", gadget.ID)
	require.NoError(t, err)

	cart, err := svc.Remove(context.Background(), "reg-1", widget.ID)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, gadget.ID, cart.Lines[0].ProductID)
}

func TestTotalIndependentOfInsertionOrder(t *testing.T) {
	t.Parallel()

	widget := product("Widget A", 1000, 10)
	gadget := product("Gadget B", 1550, 10)
	tool := product("Tool C", 2000, 10)

	forward, _ := newTestService(t, widget, gadget, tool)
	backward, _ := newTestService(t, widget, gadget, tool)

	for _, id := range []uuid.UUID{widget.ID, gadget.ID, tool.ID} {
		_, err := forward.Add(context.Background(), "reg-1", id)
		require.NoError(t, err)
	}
	for _, id := range []uuid.UUID{tool.ID, gadget.ID, widget.ID} {
		_, err := backward.Add(context.Background(), "reg-1", id)
		require.NoError(t, err)
	}

	a, err := forward.Get(context.Background(), "reg-1")
	require.NoError(t, err)
	b, err := backward.Get(context.Background(), "reg-1")
	require.NoError(t, err)

	assert.Equal(t, 4550, a.TotalCents())
	assert.Equal(t, a.TotalCents(), b.TotalCents())
}

func TestRegistersAreIsolated(t *testing.T) {
	t.Parallel()

	widget := product("Widget A", 1000, 10)
	svc, _ := newTestService(t, widget)

	_, err := svc.Add(context.Background(), "reg-1", widget.ID)
	require.NoError(t, err)

	other, err := svc.Get(context.Background(), "reg-2")
	require.NoError(t, err)
	assert.Empty(t, other.Lines)

	require.NoError(t, svc.Clear(context.Background(), "reg-1"))
	cleared, err := svc.Get(context.Background(), "reg-1")
	require.NoError(t, err)
	assert.Empty(t, cleared.Lines)
}
