package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kennahq/kenna-pos-backend/api/responses"
	ordersvc "github.com/kennahq/kenna-pos-backend/internal/orders"
	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
	"github.com/kennahq/kenna-pos-backend/pkg/logger"
	"github.com/kennahq/kenna-pos-backend/pkg/money"
)

type orderItemResponse struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int    `json:"unit_price_cents"`
	UnitPrice      string `json:"unit_price"`
}

type orderResponse struct {
	ID                 string              `json:"id"`
	Reference          string              `json:"reference"`
	Customer           string              `json:"customer"`
	TotalCents         int                 `json:"total_cents"`
	Total              string              `json:"total"`
	Status             string              `json:"status"`
	PaymentMethod      string              `json:"payment_method"`
	PaymentAmountCents int                 `json:"payment_amount_cents"`
	ChangeCents        int                 `json:"change_cents"`
	Items              []orderItemResponse `json:"items"`
	CreatedAt          string              `json:"created_at"`
}

func toOrderResponse(record models.OrderRecord) orderResponse {
	items := make([]orderItemResponse, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, orderItemResponse{
			ProductID:      item.ProductID.String(),
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			UnitPrice:      money.FormatUSD(item.UnitPriceCents),
		})
	}
	return orderResponse{
		ID:                 record.ID.String(),
		Reference:          record.Reference,
		Customer:           record.Customer,
		TotalCents:         record.TotalCents,
		Total:              money.FormatUSD(record.TotalCents),
		Status:             record.Status.String(),
		PaymentMethod:      record.PaymentMethod.String(),
		PaymentAmountCents: record.PaymentAmountCents,
		ChangeCents:        record.ChangeCents,
		Items:              items,
		CreatedAt:          record.CreatedAt.Format(time.RFC3339),
	}
}

// OrderList returns the order history newest first, items included.
func OrderList(repo ordersvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]orderResponse, 0, len(records))
		for _, record := range records {
			out = append(out, toOrderResponse(record))
		}
		responses.WriteSuccess(w, out)
	}
}

// OrderDetail returns one order by its public reference.
func OrderDetail(repo ordersvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := chi.URLParam(r, "reference")
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order reference required"))
			return
		}
		record, err := repo.FindByReference(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(*record))
	}
}
