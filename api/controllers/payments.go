package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kennahq/kenna-pos-backend/api/responses"
	checkoutsvc "github.com/kennahq/kenna-pos-backend/internal/checkout"
	"github.com/kennahq/kenna-pos-backend/internal/payments"
	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
	"github.com/kennahq/kenna-pos-backend/pkg/logger"
	"github.com/kennahq/kenna-pos-backend/pkg/money"
)

type paymentResponse struct {
	ID          string `json:"id"`
	Method      string `json:"method"`
	MethodLabel string `json:"method_label"`
	AmountCents int    `json:"amount_cents"`
	Amount      string `json:"amount"`
	Reference   string `json:"reference"`
	ItemCount   int    `json:"item_count"`
	CreatedAt   string `json:"created_at"`
}

func toPaymentResponse(record models.PaymentRecord) paymentResponse {
	return paymentResponse{
		ID:          record.ID.String(),
		Method:      record.Method.String(),
		MethodLabel: payments.MethodLabel(record.Method),
		AmountCents: record.AmountCents,
		Amount:      money.FormatUSD(record.AmountCents),
		Reference:   record.Reference,
		ItemCount:   record.ItemCount,
		CreatedAt:   record.CreatedAt.Format(time.RFC3339),
	}
}

// PaymentList returns the transaction log newest first.
func PaymentList(repo payments.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]paymentResponse, 0, len(records))
		for _, record := range records {
			out = append(out, toPaymentResponse(record))
		}
		responses.WriteSuccess(w, out)
	}
}

// PaymentExport streams the transaction log as a CSV download.
func PaymentExport(repo payments.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := fmt.Sprintf("payments-%s.csv", time.Now().Format("20060102"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		if err := payments.WriteCSV(w, records); err != nil && logg != nil {
			logg.Error(r.Context(), "payments.export_failed", err)
		}
	}
}

// PaymentUnsynced lists mobile-money sales whose settlement write failed.
func PaymentUnsynced(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Unsynced())
	}
}

// PaymentRetryUnsynced re-runs persistence for every buffered sale.
func PaymentRetryUnsynced(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.RetryUnsynced(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeInternal, err, "some sales could not be persisted"))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status":    "synced",
			"remaining": len(svc.Unsynced()),
		})
	}
}
