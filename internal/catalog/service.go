package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
)

// Service exposes the catalog read/create surface and the derived stock views.
type Service interface {
	List(ctx context.Context, search string) ([]models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	LowStock(ctx context.Context) ([]models.Product, error)
	OutOfStock(ctx context.Context) ([]models.Product, error)
}

// CreateProductInput carries the fields required to add a catalog entry.
type CreateProductInput struct {
	Name       string
	Category   string
	PriceCents int
	Stock      int
}

type service struct {
	repo              Repository
	lowStockThreshold int
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if lowStockThreshold <= 0 {
		return nil, fmt.Errorf("low stock threshold must be positive, got %d", lowStockThreshold)
	}
	return &service{repo: repo, lowStockThreshold: lowStockThreshold}, nil
}

func (s *service) List(ctx context.Context, search string) ([]models.Product, error) {
	return s.repo.List(ctx, search)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}

	product := &models.Product{
		Name:       name,
		Category:   strings.TrimSpace(input.Category),
		PriceCents: input.PriceCents,
		Stock:      input.Stock,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) LowStock(ctx context.Context) ([]models.Product, error) {
	return s.repo.LowStock(ctx, s.lowStockThreshold)
}

func (s *service) OutOfStock(ctx context.Context) ([]models.Product, error) {
	return s.repo.OutOfStock(ctx)
}
