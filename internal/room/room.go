package room

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusOccupied    Status = "occupied"
	StatusMaintenance Status = "maintenance"
)

var ErrNotFound = errors.New("room not found")

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusAvailable, StatusOccupied, StatusMaintenance:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown room status: %s", s)
	}
}

type Room struct {
	ID            string    `json:"id"`
	RoomNumber    string    `json:"roomNumber"`
	RoomType      string    `json:"roomType"`
	Capacity      int       `json:"capacity"`
	Description   string    `json:"description,omitempty"`
	PricePerNight string    `json:"pricePerNight"`
	Status        Status    `json:"status"`
	Amenities     []string  `json:"amenities"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
