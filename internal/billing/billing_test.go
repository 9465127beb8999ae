package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"hostel/internal/validate"
)

func items(amounts ...string) []Item {
	out := make([]Item, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, Item{Amount: decimal.RequireFromString(a)})
	}
	return out
}

func TestComputeTotal_Empty(t *testing.T) {
	got, err := ComputeTotal(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected 0, got %s", got)
	}
}

func TestComputeTotal_Sums(t *testing.T) {
	got, err := ComputeTotal(items("10", "15.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("25.5")) {
		t.Fatalf("expected 25.5, got %s", got)
	}
}

func TestComputeTotal_Idempotent(t *testing.T) {
	in := items("0.10", "0.20", "99.99")
	first, _ := ComputeTotal(in)
	second, _ := ComputeTotal(in)
	if !first.Equal(second) || !first.Equal(decimal.RequireFromString("100.29")) {
		t.Fatalf("expected stable 100.29, got %s and %s", first, second)
	}
}

func TestComputeTotal_NegativeRejected(t *testing.T) {
	_, err := ComputeTotal(items("10", "-0.01"))
	var ve validate.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Code != "BILL_ITEM_AMOUNT_NEGATIVE" {
		t.Fatalf("unexpected code %q", ve.Code)
	}
}

func TestParseAmount(t *testing.T) {
	if d, err := ParseAmount("12.345"); err != nil || !d.Equal(decimal.RequireFromString("12.35")) {
		t.Fatalf("expected 12.35, got %s (%v)", d, err)
	}
	if _, err := ParseAmount("abc"); err == nil {
		t.Fatalf("expected error for non-decimal")
	}
	if _, err := ParseAmount("-1"); err == nil {
		t.Fatalf("expected error for negative")
	}
}
