package catalog

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hostel/internal/account"
	"hostel/internal/api"
	"hostel/internal/validate"
)

type Handlers struct {
	Repo *Repository
}

// List shows customers and workers only what can be requested; managers see the whole catalog.
func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := api.ActorFromContext(r.Context())

	items, err := h.Repo.List(r.Context(), actor.Role != account.RoleManager)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

type CreateRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Price       string `json:"price" validate:"required"`
	ServiceType string `json:"serviceType" validate:"required"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := api.ActorFromContext(r.Context())

	var req CreateRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, err)
		return
	}
	typ, err := ParseType(req.ServiceType)
	if err != nil {
		writeError(w, validate.Failed(err.Error()))
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeError(w, validate.ValidationError{Code: "SERVICE_PRICE_INVALID", Message: "price must be a non-negative decimal"})
		return
	}

	s, err := h.Repo.Create(r.Context(), actor, NewService{Name: req.Name, Description: req.Description, Price: price, Type: typ})
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"service": s})
}

type AvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" validate:"required"`
}

func (h Handlers) SetAvailability(w http.ResponseWriter, r *http.Request) {
	actor, _ := api.ActorFromContext(r.Context())

	var req AvailabilityRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, err)
		return
	}

	s, err := h.Repo.SetAvailability(r.Context(), actor, chi.URLParam(r, "id"), *req.IsAvailable)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"service": s})
}

func writeError(w http.ResponseWriter, err error) {
	var ve validate.ValidationError
	switch {
	case errors.As(err, &ve):
		api.WriteError(w, http.StatusBadRequest, ve.Code, ve.Message)
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service not found")
	default:
		log.Printf("[catalog] internal error: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
