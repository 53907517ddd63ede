package enums

import "fmt"

// FailureReason classifies why a checkout attempt did not settle.
type FailureReason string

const (
	FailureInsufficientPayment FailureReason = "insufficient_payment"
	FailureMissingPaymentInfo  FailureReason = "missing_payment_info"
	FailurePinEntryFailed      FailureReason = "pin_entry_failed"
	FailureGatewayDeclined     FailureReason = "gateway_declined"
	FailureGatewayTimeout      FailureReason = "gateway_timeout"
	FailureCancelled           FailureReason = "cancelled"
	FailurePersistenceError    FailureReason = "persistence_error"
)

var validFailureReasons = []FailureReason{
	FailureInsufficientPayment,
	FailureMissingPaymentInfo,
	FailurePinEntryFailed,
	FailureGatewayDeclined,
	FailureGatewayTimeout,
	FailureCancelled,
	FailurePersistenceError,
}

// String implements fmt.Stringer.
func (f FailureReason) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FailureReason.
func (f FailureReason) IsValid() bool {
	for _, candidate := range validFailureReasons {
		if candidate == f {
			return true
		}
	}
	return false
}

// Recoverable reports whether the operator can retry the attempt locally.
// Persistence failures are the one case where recovery is not local: the
// charge may already be committed while the record is not.
func (f FailureReason) Recoverable() bool {
	return f != FailurePersistenceError
}

// ParseFailureReason converts raw input into a FailureReason.
func ParseFailureReason(value string) (FailureReason, error) {
	for _, candidate := range validFailureReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid failure reason %q", value)
}
