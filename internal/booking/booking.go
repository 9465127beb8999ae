package booking

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"hostel/internal/validate"
)

const DateLayout = "2006-01-02"

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

var (
	ErrNotFound        = errors.New("booking not found")
	ErrRoomUnavailable = errors.New("room is not available for these dates")
	ErrNotCancellable  = errors.New("booking cannot be cancelled")
)

type Booking struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customerId"`
	RoomID       string    `json:"roomId"`
	RoomNumber   string    `json:"roomNumber,omitempty"`
	CheckInDate  string    `json:"checkInDate"`
	CheckOutDate string    `json:"checkOutDate"`
	TotalPrice   string    `json:"totalPrice"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var errDatesInvalid = validate.ValidationError{Code: "BOOKING_DATES_INVALID", Message: "check-out must be after check-in"}

// Quote prices a stay at nightly. A partial day counts as a full night.
func Quote(checkIn, checkOut time.Time, nightly decimal.Decimal) (decimal.Decimal, int, error) {
	if !checkOut.After(checkIn) {
		return decimal.Zero, 0, errDatesInvalid
	}
	if nightly.IsNegative() {
		return decimal.Zero, 0, validate.ValidationError{Code: "ROOM_PRICE_INVALID", Message: "nightly price must be >= 0"}
	}
	nights := int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
	return nightly.Mul(decimal.NewFromInt(int64(nights))).Round(2), nights, nil
}

// ParseDates parses calendar dates in DateLayout.
func ParseDates(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, validate.ValidationError{Code: "BOOKING_DATES_INVALID", Message: "checkInDate must be YYYY-MM-DD"}
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, validate.ValidationError{Code: "BOOKING_DATES_INVALID", Message: "checkOutDate must be YYYY-MM-DD"}
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, errDatesInvalid
	}
	return in, out, nil
}
