package checkout

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/kennahq/kenna-pos-backend/internal/cart"
	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
)

// settlement is everything needed to commit one sale: the cart lines to
// decrement and the two log records to append.
type settlement struct {
	RegisterID string
	Lines      []cart.Line
	Payment    models.PaymentRecord
	Order      models.OrderRecord
}

// UnsyncedSale is a mobile-money sale whose charge went through but whose
// settlement transaction failed. It stays buffered until persistence is
// retried successfully.
type UnsyncedSale struct {
	Reference  string    `json:"reference"`
	RegisterID string    `json:"register_id"`
	TotalCents int       `json:"total_cents"`
	ItemCount  int       `json:"item_count"`
	RecordedAt time.Time `json:"recorded_at"`

	sale settlement
}

func (s *service) bufferUnsynced(sale settlement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsynced = append(s.unsynced, UnsyncedSale{
		Reference:  sale.Payment.Reference,
		RegisterID: sale.RegisterID,
		TotalCents: sale.Payment.AmountCents,
		ItemCount:  sale.Payment.ItemCount,
		RecordedAt: s.now(),
		sale:       sale,
	})
}

// Unsynced returns a snapshot of the buffered sales, oldest first.
func (s *service) Unsynced() []UnsyncedSale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UnsyncedSale(nil), s.unsynced...)
}

// RetryUnsynced re-runs the settlement transaction for every buffered sale.
// Sales that commit are dropped from the buffer; failures stay and their
// errors are combined.
func (s *service) RetryUnsynced(ctx context.Context) error {
	s.mu.Lock()
	pending := s.unsynced
	s.unsynced = nil
	s.mu.Unlock()

	var errs error
	var remaining []UnsyncedSale
	for _, entry := range pending {
		if err := s.settle(ctx, entry.sale); err != nil {
			errs = multierr.Append(errs, err)
			remaining = append(remaining, entry)
			continue
		}
		s.clearCart(ctx, entry.RegisterID)
	}

	if len(remaining) > 0 {
		s.mu.Lock()
		s.unsynced = append(remaining, s.unsynced...)
		s.mu.Unlock()
	}
	return errs
}
