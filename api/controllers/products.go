package controllers

import (
	"net/http"

	"github.com/kennahq/kenna-pos-backend/api/responses"
	"github.com/kennahq/kenna-pos-backend/api/validators"
	catalogsvc "github.com/kennahq/kenna-pos-backend/internal/catalog"
	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
	"github.com/kennahq/kenna-pos-backend/pkg/logger"
	"github.com/kennahq/kenna-pos-backend/pkg/money"
)

type productResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int    `json:"price_cents"`
	Price      string `json:"price"`
	Stock      int    `json:"stock"`
}

func toProductResponse(product models.Product) productResponse {
	return productResponse{
		ID:         product.ID.String(),
		Name:       product.Name,
		Category:   product.Category,
		PriceCents: product.PriceCents,
		Price:      money.FormatUSD(product.PriceCents),
		Stock:      product.Stock,
	}
}

func toProductResponses(products []models.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, product := range products {
		out = append(out, toProductResponse(product))
	}
	return out
}

// ProductList returns the catalog, optionally filtered by ?search= against
// name and category.
func ProductList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.List(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductResponses(products))
	}
}

type createProductRequest struct {
	Name       string `json:"name" validate:"required"`
	Category   string `json:"category"`
	PriceCents int    `json:"price_cents" validate:"min=0"`
	Stock      int    `json:"stock" validate:"min=0"`
}

func ProductCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), catalogsvc.CreateProductInput{
			Name:       payload.Name,
			Category:   payload.Category,
			PriceCents: payload.PriceCents,
			Stock:      payload.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toProductResponse(*product))
	}
}

// ProductLowStock lists products at or below the configured threshold,
// excluding those already sold out.
func ProductLowStock(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.LowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductResponses(products))
	}
}

func ProductOutOfStock(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.OutOfStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductResponses(products))
	}
}
