package checkout

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/kennahq/kenna-pos-backend/internal/cart"
	"github.com/kennahq/kenna-pos-backend/internal/catalog"
	"github.com/kennahq/kenna-pos-backend/internal/orders"
	"github.com/kennahq/kenna-pos-backend/internal/payments"
	"github.com/kennahq/kenna-pos-backend/pkg/config"
	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
	"github.com/kennahq/kenna-pos-backend/pkg/enums"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
	"github.com/kennahq/kenna-pos-backend/pkg/logger"
	"github.com/kennahq/kenna-pos-backend/pkg/metrics"
)

// Gateway is the mobile-money protocol surface: initiate a charge, wait for
// the customer's PIN confirmation, then poll until a terminal status.
type Gateway interface {
	Initiate(ctx context.Context, phoneNumber string, amountCents int) (string, error)
	ConfirmPrompt(ctx context.Context) (bool, error)
	CheckStatus(ctx context.Context, transactionID string) (enums.GatewayStatus, error)
}

// TxRunner executes fn inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input is one checkout attempt for a register's current cart.
type Input struct {
	RegisterID          string
	Method              enums.PaymentMethod
	AmountTenderedCents int
	PayerPhone          string
	PayerName           string
	Customer            string
}

// Receipt summarizes a settled checkout.
type Receipt struct {
	Reference       string              `json:"reference"`
	Method          enums.PaymentMethod `json:"method"`
	TotalCents      int                 `json:"total_cents"`
	AmountPaidCents int                 `json:"amount_paid_cents"`
	ChangeCents     int                 `json:"change_cents"`
	ItemCount       int                 `json:"item_count"`
	Customer        string              `json:"customer"`
	SettledAt       time.Time           `json:"settled_at"`
}

// Service runs the checkout state machine: validate payment, charge the
// gateway when needed, settle stock and both logs in one transaction, then
// clear the cart.
type Service interface {
	Checkout(ctx context.Context, input Input) (*Receipt, error)
	Cancel(ctx context.Context, registerID string) error
	Processing(ctx context.Context, registerID string) (bool, error)
	Unsynced() []UnsyncedSale
	RetryUnsynced(ctx context.Context) error
}

// Deps are the collaborators the engine is wired with.
type Deps struct {
	Carts    cart.Store
	Catalog  catalog.Repository
	Payments payments.Repository
	Orders   orders.Repository
	Gateway  Gateway
	Locker   Locker
	Tx       TxRunner
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
}

type service struct {
	deps Deps
	cfg  config.GatewayConfig

	mu       sync.Mutex
	cancels  map[string]context.CancelFunc
	unsynced []UnsyncedSale

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

const defaultCustomer = "Walk-in Customer"

// NewService wires the checkout engine. All collaborators except metrics and
// logger are required.
func NewService(deps Deps, cfg config.GatewayConfig) (Service, error) {
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if deps.Payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("gateway required")
	}
	if deps.Locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		deps:    deps,
		cfg:     cfg,
		cancels: map[string]context.CancelFunc{},
		now:     time.Now,
		wait:    waitContext,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input Input) (*Receipt, error) {
	if input.RegisterID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "register id required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	started := s.now()
	s.deps.Metrics.IncAttempt(input.Method.String())
	defer func() {
		s.deps.Metrics.ObserveDuration(input.Method.String(), s.now().Sub(started))
	}()

	acquired, err := s.deps.Locker.Acquire(ctx, input.RegisterID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring checkout lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress for register")
	}
	defer func() {
		if relErr := s.deps.Locker.Release(context.WithoutCancel(ctx), input.RegisterID); relErr != nil && s.deps.Logger != nil {
			s.deps.Logger.Warn(ctx, fmt.Sprintf("releasing checkout lock: %v", relErr))
		}
	}()

	receipt, err := s.run(ctx, input)
	if err != nil {
		if failure := AsFailure(err); failure != nil {
			s.deps.Metrics.IncFailure(failure.Reason.String())
		}
		return nil, err
	}
	s.deps.Metrics.IncSettled(input.Method.String())
	return receipt, nil
}

func (s *service) run(ctx context.Context, input Input) (*Receipt, error) {
	current, err := s.deps.Carts.Get(ctx, input.RegisterID)
	if err != nil {
		return nil, err
	}
	lines := current.ActiveLines()
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	total := 0
	itemCount := 0
	for _, line := range lines {
		total += line.SubtotalCents()
		itemCount += line.Quantity
	}

	customer := input.Customer
	if customer == "" {
		customer = defaultCustomer
	}

	var reference string
	amountPaid := total
	change := 0

	switch input.Method {
	case enums.PaymentMethodCash:
		if input.AmountTenderedCents < total {
			return nil, newFailure(enums.FailureInsufficientPayment)
		}
		amountPaid = input.AmountTenderedCents
		change = input.AmountTenderedCents - total
		reference = s.newLocalReference()
	case enums.PaymentMethodCard, enums.PaymentMethodWallet:
		reference = s.newLocalReference()
	case enums.PaymentMethodMobileMoney:
		reference, err = s.chargeMobileMoney(ctx, input, total)
		if err != nil {
			return nil, err
		}
	}

	sale := settlement{
		RegisterID: input.RegisterID,
		Lines:      lines,
		Payment: models.PaymentRecord{
			Method:      input.Method,
			AmountCents: total,
			Reference:   reference,
			ItemCount:   itemCount,
		},
		Order: models.OrderRecord{
			Reference:          reference,
			Customer:           customer,
			TotalCents:         total,
			Status:             enums.OrderStatusPaid,
			PaymentMethod:      input.Method,
			PaymentAmountCents: amountPaid,
			ChangeCents:        change,
		},
	}

	if err := s.settle(ctx, sale); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			switch typed.Code() {
			case pkgerrors.CodeStateConflict, pkgerrors.CodeValidation:
				return nil, err
			}
		}
		// The record write failed after any external charge already went
		// through. Keep the sale so the operator can re-run persistence.
		if input.Method == enums.PaymentMethodMobileMoney {
			s.bufferUnsynced(sale)
		}
		if s.deps.Logger != nil {
			s.deps.Logger.Error(ctx, "checkout.settlement_failed", err)
		}
		return nil, wrapFailure(enums.FailurePersistenceError, err)
	}

	s.clearCart(ctx, input.RegisterID)

	return &Receipt{
		Reference:       reference,
		Method:          input.Method,
		TotalCents:      total,
		AmountPaidCents: amountPaid,
		ChangeCents:     change,
		ItemCount:       itemCount,
		Customer:        customer,
		SettledAt:       s.now(),
	}, nil
}

// chargeMobileMoney drives the gateway protocol: initiate, wait for PIN
// confirmation, then poll for a terminal status inside a bounded window.
// Returns the gateway transaction id on success.
func (s *service) chargeMobileMoney(ctx context.Context, input Input, totalCents int) (string, error) {
	if input.PayerPhone == "" || input.PayerName == "" {
		return "", newFailure(enums.FailureMissingPaymentInfo)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.registerCancel(input.RegisterID, cancel)
	defer s.unregisterCancel(input.RegisterID)

	txID, err := s.deps.Gateway.Initiate(ctx, input.PayerPhone, totalCents)
	if err != nil {
		if stdErrors.Is(err, context.Canceled) {
			return "", newFailure(enums.FailureCancelled)
		}
		return "", newFailure(enums.FailureMissingPaymentInfo)
	}

	confirmed, err := s.deps.Gateway.ConfirmPrompt(ctx)
	if err != nil {
		if stdErrors.Is(err, context.Canceled) {
			return "", newFailure(enums.FailureCancelled)
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "awaiting payment confirmation")
	}
	if !confirmed {
		return "", newFailure(enums.FailurePinEntryFailed)
	}

	for attempt := 0; attempt < s.cfg.PollMaxAttempts; attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, s.cfg.PollInterval); err != nil {
				return "", newFailure(enums.FailureCancelled)
			}
		}
		s.deps.Metrics.IncPoll()
		status, err := s.deps.Gateway.CheckStatus(ctx, txID)
		if err != nil {
			if stdErrors.Is(err, context.Canceled) {
				return "", newFailure(enums.FailureCancelled)
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "polling gateway status")
		}
		switch status {
		case enums.GatewayStatusCompleted:
			return txID, nil
		case enums.GatewayStatusFailed:
			return "", newFailure(enums.FailureGatewayDeclined)
		}
	}
	return "", newFailure(enums.FailureGatewayTimeout)
}

// settle commits the sale atomically: decrement stock per line, append the
// payment record and write the order with its items. Any failure rolls the
// whole sale back.
func (s *service) settle(ctx context.Context, sale settlement) error {
	return s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalogRepo := s.deps.Catalog.WithTx(tx)
		for _, line := range sale.Lines {
			if err := catalogRepo.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		payment := sale.Payment
		if err := s.deps.Payments.WithTx(tx).Create(ctx, &payment); err != nil {
			return err
		}

		order := sale.Order
		order.Items = make([]models.OrderLineItem, 0, len(sale.Lines))
		for _, line := range sale.Lines {
			order.Items = append(order.Items, models.OrderLineItem{
				ProductID:      line.ProductID,
				Name:           line.Name,
				Quantity:       line.Quantity,
				UnitPriceCents: line.UnitPriceCents,
			})
		}
		return s.deps.Orders.WithTx(tx).Create(ctx, &order)
	})
}

// clearCart empties the register after a committed sale. The sale already
// settled, so a cart store failure is logged and swallowed.
func (s *service) clearCart(ctx context.Context, registerID string) {
	if err := s.deps.Carts.Clear(context.WithoutCancel(ctx), registerID); err != nil && s.deps.Logger != nil {
		s.deps.Logger.Warn(ctx, fmt.Sprintf("clearing cart after settlement: %v", err))
	}
}

// Cancel aborts the register's in-flight mobile-money attempt. Local methods
// settle synchronously and cannot be cancelled.
func (s *service) Cancel(_ context.Context, registerID string) error {
	s.mu.Lock()
	cancel, ok := s.cancels[registerID]
	s.mu.Unlock()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no cancellable payment in progress")
	}
	cancel()
	return nil
}

// Processing reports whether the register currently holds the checkout lock.
func (s *service) Processing(ctx context.Context, registerID string) (bool, error) {
	return s.deps.Locker.Held(ctx, registerID)
}

func (s *service) registerCancel(registerID string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels[registerID] = cancel
}

func (s *service) unregisterCancel(registerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cancels, registerID)
}

func (s *service) newLocalReference() string {
	return fmt.Sprintf("POS-%d", s.now().UnixMilli())
}

func waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
