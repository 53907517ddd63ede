package enums

import "fmt"

// GatewayStatus is the state the mobile-money gateway reports for a transaction.
type GatewayStatus string

const (
	GatewayStatusPending   GatewayStatus = "pending"
	GatewayStatusCompleted GatewayStatus = "completed"
	GatewayStatusFailed    GatewayStatus = "failed"
)

var validGatewayStatuses = []GatewayStatus{
	GatewayStatusPending,
	GatewayStatusCompleted,
	GatewayStatusFailed,
}

// String implements fmt.Stringer.
func (g GatewayStatus) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GatewayStatus.
func (g GatewayStatus) IsValid() bool {
	for _, candidate := range validGatewayStatuses {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGatewayStatus converts raw input into a GatewayStatus.
func ParseGatewayStatus(value string) (GatewayStatus, error) {
	for _, candidate := range validGatewayStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gateway status %q", value)
}
