package checkout

import (
	stdErrors "errors"

	"github.com/kennahq/kenna-pos-backend/pkg/enums"
	pkgerrors "github.com/kennahq/kenna-pos-backend/pkg/errors"
)

// FailureError is a checkout attempt that ended without settling. The reason
// is part of the API contract; the message is safe to show at the register.
type FailureError struct {
	Reason enums.FailureReason
	cause  error
}

var failureMessages = map[enums.FailureReason]string{
	enums.FailureInsufficientPayment: "amount tendered is less than the total due",
	enums.FailureMissingPaymentInfo:  "payer phone number and name are required for mobile money",
	enums.FailurePinEntryFailed:      "customer did not complete the PIN entry",
	enums.FailureGatewayDeclined:     "payment was declined by the gateway",
	enums.FailureGatewayTimeout:      "payment did not complete before the polling window closed",
	enums.FailureCancelled:           "payment was cancelled at the register",
	enums.FailurePersistenceError:    "payment could not be recorded, sale kept for retry",
}

func newFailure(reason enums.FailureReason) *FailureError {
	return &FailureError{Reason: reason}
}

func wrapFailure(reason enums.FailureReason, cause error) *FailureError {
	return &FailureError{Reason: reason, cause: cause}
}

func (f *FailureError) Error() string {
	if msg, ok := failureMessages[f.Reason]; ok {
		return msg
	}
	return "checkout failed"
}

func (f *FailureError) Unwrap() error {
	return f.cause
}

// Code maps the failure reason onto the shared error code vocabulary.
// Operator mistakes are validation errors, gateway outcomes are payment
// failures, and persistence failures are internal.
func (f *FailureError) Code() pkgerrors.Code {
	switch f.Reason {
	case enums.FailureInsufficientPayment, enums.FailureMissingPaymentInfo:
		return pkgerrors.CodeValidation
	case enums.FailurePersistenceError:
		return pkgerrors.CodeInternal
	default:
		return pkgerrors.CodePaymentFailed
	}
}

// AsFailure extracts a FailureError from an error chain, or nil.
func AsFailure(err error) *FailureError {
	if err == nil {
		return nil
	}
	var typed *FailureError
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
