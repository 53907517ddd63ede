package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kennahq/kenna-pos-backend/api/middleware"
	"github.com/kennahq/kenna-pos-backend/api/responses"
	"github.com/kennahq/kenna-pos-backend/api/validators"
	cartsvc "github.com/kennahq/kenna-pos-backend/internal/cart"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
	"github.com/kennahq/kenna-pos-backend/pkg/logger"
	"github.com/kennahq/kenna-pos-backend/pkg/money"
)

type cartLineResponse struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int    `json:"unit_price_cents"`
	UnitPrice      string `json:"unit_price"`
	Stock          int    `json:"stock"`
	Quantity       int    `json:"quantity"`
	SubtotalCents  int    `json:"subtotal_cents"`
}

type cartResponse struct {
	RegisterID string             `json:"register_id"`
	Lines      []cartLineResponse `json:"lines"`
	TotalCents int                `json:"total_cents"`
	Total      string             `json:"total"`
	ItemCount  int                `json:"item_count"`
}

func toCartResponse(c *cartsvc.Cart) cartResponse {
	lines := make([]cartLineResponse, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, cartLineResponse{
			ProductID:      line.ProductID.String(),
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			UnitPrice:      money.FormatUSD(line.UnitPriceCents),
			Stock:          line.Stock,
			Quantity:       line.Quantity,
			SubtotalCents:  line.SubtotalCents(),
		})
	}
	return cartResponse{
		RegisterID: c.RegisterID,
		Lines:      lines,
		TotalCents: c.TotalCents(),
		Total:      money.FormatUSD(c.TotalCents()),
		ItemCount:  c.ItemCount(),
	}
}

func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registerID := middleware.RegisterIDFromContext(r.Context())
		current, err := svc.Get(r.Context(), registerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(current))
	}
}

type cartAddRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registerID := middleware.RegisterIDFromContext(r.Context())

		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		current, err := svc.Add(r.Context(), registerID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(current))
	}
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registerID := middleware.RegisterIDFromContext(r.Context())

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current, err := svc.UpdateQuantity(r.Context(), registerID, productID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(current))
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registerID := middleware.RegisterIDFromContext(r.Context())

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		current, err := svc.Remove(r.Context(), registerID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartResponse(current))
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registerID := middleware.RegisterIDFromContext(r.Context())
		if err := svc.Clear(r.Context(), registerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
