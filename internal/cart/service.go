package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service mutates per-register carts while holding every line inside the
// product's current stock bound.
type Service interface {
	Get(ctx context.Context, registerID string) (*Cart, error)
	Add(ctx context.Context, registerID string, productID uuid.UUID) (*Cart, error)
	Remove(ctx context.Context, registerID string, productID uuid.UUID) (*Cart, error)
	UpdateQuantity(ctx context.Context, registerID string, productID uuid.UUID, quantity int) (*Cart, error)
	Clear(ctx context.Context, registerID string) error
}

type service struct {
	store    Store
	products productLoader
}

// NewService wires a cart service over the given store and product loader.
func NewService(store Store, products productLoader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{store: store, products: products}, nil
}

func (s *service) Get(ctx context.Context, registerID string) (*Cart, error) {
	if registerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "register id required")
	}
	return s.store.Get(ctx, registerID)
}

// Add increments the product's line by one, bounded by current stock. Hitting
// the bound is a silent no-op, mirroring the disabled add control at the UI.
func (s *service) Add(ctx context.Context, registerID string, productID uuid.UUID) (*Cart, error) {
	if registerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "register id required")
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is out of stock")
	}

	cart, err := s.store.Get(ctx, registerID)
	if err != nil {
		return nil, err
	}

	if line := cart.findLine(productID); line != nil {
		refreshSnapshot(line, product)
		if line.Quantity < product.Stock {
			line.Quantity++
		}
	} else {
		cart.Lines = append(cart.Lines, Line{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Stock:          product.Stock,
			Quantity:       1,
		})
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) Remove(ctx context.Context, registerID string, productID uuid.UUID) (*Cart, error) {
	if registerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "register id required")
	}
	cart, err := s.store.Get(ctx, registerID)
	if err != nil {
		return nil, err
	}
	cart.removeLine(productID)
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateQuantity clamps the requested quantity to [0, stock]. A line clamped
// to zero stays in the cart until removed explicitly.
func (s *service) UpdateQuantity(ctx context.Context, registerID string, productID uuid.UUID, quantity int) (*Cart, error) {
	if registerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "register id required")
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.store.Get(ctx, registerID)
	if err != nil {
		return nil, err
	}
	line := cart.findLine(productID)
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}

	refreshSnapshot(line, product)
	line.Quantity = clamp(quantity, 0, product.Stock)

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) Clear(ctx context.Context, registerID string) error {
	if registerID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "register id required")
	}
	return s.store.Clear(ctx, registerID)
}

func refreshSnapshot(line *Line, product *models.Product) {
	line.Name = product.Name
	line.UnitPriceCents = product.PriceCents
	line.Stock = product.Stock
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
