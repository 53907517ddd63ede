package checkout

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

	"github.com/kennahq/kenna-pos-backend/internal/cart"
	"github.com/kennahq/kenna-pos-backend/internal/catalog"
	"github.com/kennahq/kenna-pos-backend/internal/orders"
	"github.com/kennahq/kenna-pos-backend/internal/payments"
	"github.com/kennahq/kenna-pos-backend/pkg/config"
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
	if err := conn.AutoMigrate(&models.Product{}, &models.PaymentRecord{}, &models.OrderRecord{}, &models.OrderLineItem{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

type stubGateway struct {
	txID         string
	initErr      error
	confirmed    bool
	confirmErr   error
	statuses     []enums.GatewayStatus
	blockConfirm chan struct{}

	initiateCalls int
	confirmCalls  int
	statusCalls   int
}

func (g *stubGateway) Initiate(_ context.Context, _ string, _ int) (string, error) {
	g.initiateCalls++
	if g.initErr != nil {
		return "", g.initErr
	}
	return g.txID, nil
}

func (g *stubGateway) ConfirmPrompt(ctx context.Context) (bool, error) {
	g.confirmCalls++
	if g.blockConfirm != nil {
		close(g.blockConfirm)
		<-ctx.Done()
		return false, ctx.Err()
	}
	return g.confirmed, g.confirmErr
}

func (g *stubGateway) CheckStatus(_ context.Context, _ string) (enums.GatewayStatus, error) {
	g.statusCalls++
	if len(g.statuses) == 0 {
		return enums.GatewayStatusPending, nil
	}
	status := g.statuses[0]
	g.statuses = g.statuses[1:]
	return status, nil
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type flakyTxRunner struct {
	inner    TxRunner
	failures int
}

func (r *flakyTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if r.failures > 0 {
		r.failures--
		return fmt.Errorf("connection reset by peer")
	}
	return r.inner.WithTx(ctx, fn)
}

type engineFixture struct {
	svc      *service
	carts    cart.Store
	catalog  catalog.Repository
	payments payments.Repository
	orders   orders.Repository
	locker   Locker
	gateway  *stubGateway
	db       *gorm.DB
}

func newFixture(t *testing.T, gateway *stubGateway, runner TxRunner) *engineFixture {
	t.Helper()

	conn := openTestDB(t)
	if runner == nil {
		runner = gormTxRunner{db: conn}
	}
	fixture := &engineFixture{
		carts:    cart.NewMemoryStore(),
		catalog:  catalog.NewRepository(conn),
		payments: payments.NewRepository(conn),
		orders:   orders.NewRepository(conn),
		locker:   NewMemoryLocker(),
		gateway:  gateway,
		db:       conn,
	}

	svc, err := NewService(Deps{
		Carts:    fixture.carts,
		Catalog:  fixture.catalog,
		Payments: fixture.payments,
		Orders:   fixture.orders,
		Gateway:  gateway,
		Locker:   fixture.locker,
		Tx:       runner,
	}, config.GatewayConfig{PollInterval: time.Millisecond, PollMaxAttempts: 3})
	require.NoError(t, err)

	fixture.svc = svc.(*service)
	fixture.svc.wait = func(context.Context, time.Duration) error { return nil }
	return fixture
}

func (f *engineFixture) seedProduct(t *testing.T, name string, priceCents, stock int) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, Category: "Widgets", PriceCents: priceCents, Stock: stock}
	require.NoError(t, f.catalog.Create(context.Background(), product))
	return product
}

func (f *engineFixture) loadCart(t *testing.T, registerID string, lines ...cart.Line) {
	t.Helper()
	require.NoError(t, f.carts.Save(context.Background(), &cart.Cart{RegisterID: registerID, Lines: lines}))
}

func line(product *models.Product, quantity int) cart.Line {
	return cart.Line{
		ProductID:      product.ID,
		Name:           product.Name,
		UnitPriceCents: product.PriceCents,
		Stock:          product.Stock,
		Quantity:       quantity,
	}
}

func (f *engineFixture) paymentCount(t *testing.T) int {
	t.Helper()
	records, err := f.payments.List(context.Background())
	require.NoError(t, err)
	return len(records)
}

func TestCashCheckoutSettles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubGateway{}, nil)
	widget := f.seedProduct(t, "Widget A", 1000, 50)
	gadget := f.seedProduct(t, "Gadget B", 1550, 30)
	f.loadCart(t, "reg-1", line(widget, 2), line(gadget, 1))

	receipt, err := f.svc.Checkout(context.Background(), Input{
		RegisterID:          "reg-1",
		Method:              enums.PaymentMethodCash,
		AmountTenderedCents: 4000,
	})
	require.NoError(t, err)

	assert.Equal(t, 3550, receipt.TotalCents)
	assert.Equal(t, 4000, receipt.AmountPaidCents)
	assert.Equal(t, 450, receipt.ChangeCents)
	assert.Equal(t, 3, receipt.ItemCount)
	assert.Equal(t, "Walk-in Customer", receipt.Customer)
	assert.Regexp(t, `^POS-\d+$`, receipt.Reference)

	payment, err := f.payments.FindByReference(context.Background(), receipt.Reference)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentMethodCash, payment.Method)
	assert.Equal(t, 3550, payment.AmountCents)

	order, err := f.orders.FindByReference(context.Background(), receipt.Reference)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.Equal(t, 450, order.ChangeCents)
	require.Len(t, order.Items, 2)

	got, err := f.catalog.FindByID(context.Background(), widget.ID)
	require.NoError(t, err)
	assert.Equal(t, 48, got.Stock)

	remaining, err := f.carts.Get(context.Background(), "reg-1")
	require.NoError(t, err)
	assert.Empty(t, remaining.Lines)

	held, err := f.svc.Processing(context.Background(), "reg-1")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestCashInsufficientTenderLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubGateway{}, nil)
	widget := f.seedProduct(t, "Widget A", 1000, 50)
	f.loadCart(t, "reg-1", line(widget, 3))

	_, err := f.svc.Checkout(context.Background(), Input{
		RegisterID:          "reg-1",
		Method:              enums.PaymentMethodCash,
		AmountTenderedCents: 2999,
	})
	require.Error(t, err)
	failure := AsFailure(err)
	require.NotNil(t, failure)
	assert.Equal(t, enums.FailureInsufficientPayment, failure.Reason)
	assert.Equal(t, pkgerrors.CodeValidation, failure.Code())

	got, err := f.catalog.FindByID(context.Background(), widget.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Stock)
	assert.Zero(t, f.paymentCount(t))

	remaining, err := f.carts.Get(context.Background(), "reg-1")
	require.NoError(t, err)
	require.Len(t, remaining.Lines, 1)
	assert.Equal(t, 3, remaining.Lines[0].Quantity)
}

func TestEmptyCartRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubGateway{}, nil)
	widget := f.seedProduct(t, "Widget A", 1000, 50)

	_, err := f.svc.Checkout(context.Background(), Input{
		RegisterID: "reg-1",
		Method:     enums.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// Lines clamped to zero count as empty too.
	f.loadCart(t, "reg-1", cart.Line{ProductID: widget.ID, Name: widget.Name, UnitPriceCents: widget.PriceCents, Stock: widget.Stock, Quantity: 0})
	_, err = f.svc.Checkout(context.Background(), Input{
		RegisterID: "reg-1",
		Method:     enums.PaymentMethodCard,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCardCheckoutPaysExactTotal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubGateway{}, nil)
	widget := f.seedProduct(t, "Widget A", 1299, 40)
	f.loadCart(t, "reg-1", line(widget, 2))

	receipt, err := f.svc.Checkout(context.Background(), Input{
		RegisterID: "reg-1",
		Method:     enums.PaymentMethodCard,
		Customer:   "Jordan",
	})
	require.NoError(t, err)
	assert.Equal(t, 2598, receipt.TotalCents)
	assert.Equal(t, 2598, receipt.AmountPaidCents)
	assert.Zero(t, receipt.ChangeCents)
	assert.Equal(t, "Jordan", receipt.Customer)
}

func TestMobileMoneySettlesWithGatewayReference(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{
		txID:      "MPTEST123AB",
		confirmed: true,
		statuses:  []enums.GatewayStatus{enums.GatewayStatusPending, enums.GatewayStatusPending, enums.GatewayStatusCompleted},
	}
	f := newFixture(t, gateway, nil)
	widget := f.seedProduct(t, "Widget A", 1000, 50)
	f.loadCart(t, "reg-1", line(widget, 2))

	receipt, err := f.svc.Checkout(context.Background(), Input{
		RegisterID: "reg-1",
		Method:     enums.PaymentMethodMobileMoney,
		PayerPhone: "+254712345678",
		PayerName:  "Amina",
	})
	require.NoError(t, err)

	assert.Equal(t, "MPTEST123AB", receipt.Reference)
	assert.Equal(t, 2000, receipt.AmountPaidCents)
	assert.Equal(t, 3, gateway.statusCalls)

	payment, err := f.payments.FindByReference(context.Background(), "MPTEST123AB")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentMethodMobileMoney, payment.Method)
}

func TestMobileMoneyMissingPhone(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{txID: "MPTEST123AB", confirmed: true}
	f := newFixture(t, gateway, nil)
	widget := f.seedProduct(t, "Widget A", 1000, 50)
	f.loadCart(t, "reg-1", line(widget, 1))

	_, err := f.svc.Checkout(context.Background(), Input{
		RegisterID: "reg-1",
		Method:     enums.PaymentMethodMobileMoney,
	})
	require.Error(t, err)
	failure := AsFailure(err)
	require.NotNil(t, failure)
	assert.Equal(t, enums.FailureMissingPaymentInfo, failure.Reason)
	assert.Zero(t, gateway.initiateCalls)
}

func TestMobileMoneyPinEntryFailedSkipsPolling(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{txID: "MPTEST123AB", confirmed: false}
	f := newFixture(t, gateway, nil)
	widget := f.seedProduct(t, "Widget A", 1000, 50)
	f.loadCart(t, "reg-1", line(widget, 1))

	_, err := f.svc.Checkout(context.Background(), Input{
		RegisterID: "reg-1",
		Method:     enums.PaymentMethodMobileMoney,
		PayerPhone: "+254712345678",
		PayerName:  "Amina",
	})
	require.Error(t, err)
	failure := AsFailure(err)
	require.NotNil(t, failure)
	assert.Equal(t, enums.FailurePinEntryFailed, failure.Reason)
	assert.Zero(t, gateway.statusCalls)
	assert.Zero(t, f.paymentCount(t))
}

func TestMobileMoneyDeclined(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{
		txID:      "MPTEST123AB",
		confirmed: true,
		statuses:  []enums.GatewayStatus{enums.GatewayStatusFailed},
	}
	f := newFixture(t, gateway, nil)
	widget := f.seedProduct(t, "Widget A", 1000, 50)
	f.loadCart(t, "reg-1", line(widget, 1))

	_, err := f.svc.Checkout(context.Background(), Input{
		RegisterID: "reg-1",
		Method:     enums.PaymentMethodMobileMoney,
		PayerPhone: "+254712345678",
		PayerName:  "Amina",
	})
	require.Error(t, err)
	failure := AsFailure(err)
	require.NotNil(t, failure)
	assert.Equal(t, enums.FailureGatewayDeclined, failure.Reason)

	got, err := f.catalog.FindByID(context.Background(), widget.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Stock)
}

func TestMobileMoneyPollingWindowTimesOut(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{txID: "MPTEST123AB", confirmed: true}
	f := newFixture(t, gateway, nil)
	widget := f.seedProduct(t, "Widget A", 1000, 50)
	f.loadCart(t, "reg-1", line(widget, 1))

	_, err := f.svc.Checkout(context.Background(), Input{
		RegisterID: "reg-1",
		Method:     enums.PaymentMethodMobileMoney,
		PayerPhone: "+254712345678",
		PayerName:  "Amina",
	})
	require.Error(t, err)
	failure := AsFailure(err)
	require.NotNil(t, failure)
	assert.Equal(t, enums.FailureGatewayTimeout, failure.Reason)
	assert.Equal(t, 3, gateway.statusCalls)
}

func TestCancelDuringPrompt(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{txID: "MPTEST123AB", blockConfirm: make(chan struct{})}
	f := newFixture(t, gateway, nil)
	widget := f.seedProduct(t, "Widget A", 1000, 50)
	f.loadCart(t, "reg-1", line(widget, 1))

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Checkout(context.Background(), Input{
			RegisterID: "reg-1",
			Method:     enums.PaymentMethodMobileMoney,
			PayerPhone: "+254712345678",
			PayerName:  "Amina",
		})
		done <- err
	}()

	<-gateway.blockConfirm
	require.NoError(t, f.svc.Cancel(context.Background(), "reg-1"))

	err := <-done
	require.Error(t, err)
	failure := AsFailure(err)
	require.NotNil(t, failure)
	assert.Equal(t, enums.FailureCancelled, failure.Reason)

	// The attempt is over, so there is nothing left to cancel.
	err = f.svc.Cancel(context.Background(), "reg-1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSingleFlightPerRegister(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubGateway{}, nil)
	widget := f.seedProduct(t, "Widget A", 1000, 50)
	f.loadCart(t, "reg-1", line(widget, 1))

	acquired, err := f.locker.Acquire(context.Background(), "reg-1")
	require.NoError(t, err)
	require.True(t, acquired)

	_, err = f.svc.Checkout(context.Background(), Input{
		RegisterID:          "reg-1",
		Method:              enums.PaymentMethodCash,
		AmountTenderedCents: 5000,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	// A different register is unaffected.
	f.loadCart(t, "reg-2", line(widget, 1))
	_, err = f.svc.Checkout(context.Background(), Input{
		RegisterID:          "reg-2",
		Method:              enums.PaymentMethodCash,
		AmountTenderedCents: 5000,
	})
	require.NoError(t, err)
}

func TestPersistenceFailureBuffersMobileMoneySale(t *testing.T) {
	t.Parallel()

	gateway := &stubGateway{
		txID:      "MPTEST123AB",
		confirmed: true,
		statuses:  []enums.GatewayStatus{enums.GatewayStatusCompleted},
	}
	f := newFixture(t, gateway, nil)
	runner := &flakyTxRunner{inner: gormTxRunner{db: f.db}, failures: 1}
	f.svc.deps.Tx = runner

	widget := f.seedProduct(t, "Widget A", 1000, 50)
	f.loadCart(t, "reg-1", line(widget, 2))

	_, err := f.svc.Checkout(context.Background(), Input{
		RegisterID: "reg-1",
		Method:     enums.PaymentMethodMobileMoney,
		PayerPhone: "+254712345678",
		PayerName:  "Amina",
	})
	require.Error(t, err)
	failure := AsFailure(err)
	require.NotNil(t, failure)
	assert.Equal(t, enums.FailurePersistenceError, failure.Reason)
	assert.False(t, failure.Reason.Recoverable())

	pending := f.svc.Unsynced()
	require.Len(t, pending, 1)
	assert.Equal(t, "MPTEST123AB", pending[0].Reference)
	assert.Equal(t, 2000, pending[0].TotalCents)

	require.NoError(t, f.svc.RetryUnsynced(context.Background()))
	assert.Empty(t, f.svc.Unsynced())

	payment, err := f.payments.FindByReference(context.Background(), "MPTEST123AB")
	require.NoError(t, err)
	assert.Equal(t, 2000, payment.AmountCents)

	got, err := f.catalog.FindByID(context.Background(), widget.ID)
	require.NoError(t, err)
	assert.Equal(t, 48, got.Stock)

	remaining, err := f.carts.Get(context.Background(), "reg-1")
	require.NoError(t, err)
	assert.Empty(t, remaining.Lines)
}

func TestPersistenceFailureOnLocalMethodNotBuffered(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubGateway{}, nil)
	f.svc.deps.Tx = &flakyTxRunner{inner: gormTxRunner{db: f.db}, failures: 1}

	widget := f.seedProduct(t, "Widget A", 1000, 50)
	f.loadCart(t, "reg-1", line(widget, 1))

	_, err := f.svc.Checkout(context.Background(), Input{
		RegisterID:          "reg-1",
		Method:              enums.PaymentMethodCash,
		AmountTenderedCents: 1000,
	})
	require.Error(t, err)
	failure := AsFailure(err)
	require.NotNil(t, failure)
	assert.Equal(t, enums.FailurePersistenceError, failure.Reason)
	assert.Empty(t, f.svc.Unsynced())
}

func TestStockConflictRollsBackWholeSale(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &stubGateway{}, nil)
	widget := f.seedProduct(t, "Widget A", 1000, 5)
	f.loadCart(t, "reg-1", line(widget, 2))

	// The catalog moved underneath the cart snapshot.
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", widget.ID).Update("stock", 1).Error)

	_, err := f.svc.Checkout(context.Background(), Input{
		RegisterID:          "reg-1",
		Method:              enums.PaymentMethodCash,
		AmountTenderedCents: 5000,
	})
	require.Error(t, err)
	assert.Nil(t, AsFailure(err))
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	assert.Zero(t, f.paymentCount(t))
	got, err := f.catalog.FindByID(context.Background(), widget.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
}
