package billing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"hostel/internal/validate"
)

var (
	ErrNotFound    = errors.New("bill not found")
	ErrAlreadyPaid = errors.New("bill is already paid")
)

const scale int32 = 2

type Bill struct {
	ID          string     `json:"id"`
	CustomerID  string     `json:"customerId"`
	BookingID   string     `json:"bookingId,omitempty"`
	TotalAmount string     `json:"totalAmount"`
	Paid        bool       `json:"paid"`
	PaymentDate *time.Time `json:"paymentDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Items       []Item     `json:"items,omitempty"`
}

type Item struct {
	ID               string          `json:"id"`
	BillID           string          `json:"billId"`
	ServiceRequestID string          `json:"serviceRequestId,omitempty"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// ComputeTotal sums item amounts. An empty bill totals zero; a negative amount is rejected.
func ComputeTotal(items []Item) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, it := range items {
		if it.Amount.IsNegative() {
			return decimal.Zero, validate.ValidationError{Code: "BILL_ITEM_AMOUNT_NEGATIVE", Message: "bill item amount must be >= 0"}
		}
		total = total.Add(it.Amount)
	}
	return total.Round(scale), nil
}

// ParseAmount parses a client-supplied money string.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, validate.ValidationError{Code: "BILL_ITEM_AMOUNT_INVALID", Message: "amount must be a decimal string"}
	}
	if d.IsNegative() {
		return decimal.Zero, validate.ValidationError{Code: "BILL_ITEM_AMOUNT_NEGATIVE", Message: "bill item amount must be >= 0"}
	}
	return d.Round(scale), nil
}
