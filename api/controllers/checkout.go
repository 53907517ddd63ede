package controllers

import (
	"net/http"

	"github.com/kennahq/kenna-pos-backend/api/middleware"
	"github.com/kennahq/kenna-pos-backend/api/responses"
	"github.com/kennahq/kenna-pos-backend/api/validators"
	checkoutsvc "github.com/kennahq/kenna-pos-backend/internal/checkout"
	"github.com/kennahq/kenna-pos-backend/pkg/enums"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
	"github.com/kennahq/kenna-pos-backend/pkg/logger"
	"github.com/kennahq/kenna-pos-backend/pkg/money"
)

type checkoutRequest struct {
	Method              string `json:"method" validate:"required"`
	AmountTenderedCents int    `json:"amount_tendered_cents" validate:"min=0"`
	PayerPhone          string `json:"payer_phone"`
	PayerName           string `json:"payer_name"`
	Customer            string `json:"customer"`
}

type receiptResponse struct {
	Reference       string `json:"reference"`
	Method          string `json:"method"`
	TotalCents      int    `json:"total_cents"`
	Total           string `json:"total"`
	AmountPaidCents int    `json:"amount_paid_cents"`
	ChangeCents     int    `json:"change_cents"`
	Change          string `json:"change"`
	ItemCount       int    `json:"item_count"`
	Customer        string `json:"customer"`
	SettledAt       string `json:"settled_at"`
}

// Checkout runs the register's current cart through the payment state
// machine and settles on success. Failures carry a machine-readable reason.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		registerID := middleware.RegisterIDFromContext(r.Context())

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		receipt, err := svc.Checkout(r.Context(), checkoutsvc.Input{
			RegisterID:          registerID,
			Method:              method,
			AmountTenderedCents: payload.AmountTenderedCents,
			PayerPhone:          payload.PayerPhone,
			PayerName:           payload.PayerName,
			Customer:            payload.Customer,
		})
		if err != nil {
			writeCheckoutError(w, r, logg, err)
			return
		}

		responses.WriteSuccess(w, receiptResponse{
			Reference:       receipt.Reference,
			Method:          receipt.Method.String(),
			TotalCents:      receipt.TotalCents,
			Total:           money.FormatUSD(receipt.TotalCents),
			AmountPaidCents: receipt.AmountPaidCents,
			ChangeCents:     receipt.ChangeCents,
			Change:          money.FormatUSD(receipt.ChangeCents),
			ItemCount:       receipt.ItemCount,
			Customer:        receipt.Customer,
			SettledAt:       receipt.SettledAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
}

// writeCheckoutError maps checkout failures onto the error envelope with the
// failure reason attached, so the register can branch on it.
func writeCheckoutError(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error) {
	failure := checkoutsvc.AsFailure(err)
	if failure == nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	if logg != nil {
		ctx := logg.WithFields(r.Context(), map[string]any{
			"failure_reason": failure.Reason.String(),
		})
		logg.Warn(ctx, "checkout.failed")
	}

	meta := pkgerrors.MetadataFor(failure.Code())
	responses.WriteErrorPayload(w, meta.HTTPStatus, string(failure.Code()), failure.Error(), map[string]any{
		"reason":      failure.Reason.String(),
		"recoverable": failure.Reason.Recoverable(),
	})
}

// CheckoutCancel aborts the register's in-flight mobile-money payment.
func CheckoutCancel(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registerID := middleware.RegisterIDFromContext(r.Context())
		if err := svc.Cancel(r.Context(), registerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelling"})
	}
}

// CheckoutStatus reports whether the register has a checkout in flight.
func CheckoutStatus(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registerID := middleware.RegisterIDFromContext(r.Context())
		processing, err := svc.Processing(r.Context(), registerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"processing": processing})
	}
}
