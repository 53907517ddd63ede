package payments

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
	"github.com/kennahq/kenna-pos-backend/pkg/enums"
	"github.com/kennahq/kenna-pos-backend/pkg/money"
)

var csvHeader = []string{"Time", "Payment Method", "Amount", "Items", "Reference"}

// methodLabels are the display names used on receipts and exports.
var methodLabels = map[enums.PaymentMethod]string{
	enums.PaymentMethodCash:        "Cash",
	enums.PaymentMethodCard:        "Card",
	enums.PaymentMethodWallet:      "Wallet",
	enums.PaymentMethodMobileMoney: "Mobile Money",
}

// MethodLabel returns the human-readable name for a payment method.
func MethodLabel(method enums.PaymentMethod) string {
	if label, ok := methodLabels[method]; ok {
		return label
	}
	return method.String()
}

// WriteCSV streams the payment log as CSV, one row per record in the order
// given. Timestamps render in the local zone in US locale style.
func WriteCSV(w io.Writer, records []models.PaymentRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, record := range records {
		row := []string{
			formatTimestamp(record.CreatedAt),
			MethodLabel(record.Method),
			money.FormatUSD(record.AmountCents),
			strconv.Itoa(record.ItemCount),
			record.Reference,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatTimestamp(ts time.Time) string {
	return ts.Local().Format("1/2/2006, 3:04:05 PM")
}
