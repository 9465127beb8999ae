package catalog

import (
	"errors"
	"fmt"
	"time"
)

type Type string

const (
	TypeLaundry       Type = "laundry"
	TypeCleaning      Type = "cleaning"
	TypeSpa           Type = "spa"
	TypeEntertainment Type = "entertainment"
	TypeFood          Type = "food"
)

var ErrNotFound = errors.New("service not found")

func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeLaundry, TypeCleaning, TypeSpa, TypeEntertainment, TypeFood:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown service type: %s", s)
	}
}

// Service is a catalog entry customers can request.
type Service struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price"`
	Type        Type      `json:"serviceType"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
