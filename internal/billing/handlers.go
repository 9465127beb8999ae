package billing

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hostel/internal/account"
	"hostel/internal/api"
	"hostel/internal/validate"
)

type Handlers struct {
	Bills *Repository
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var (
		items []Bill
		err   error
	)
	switch actor.Role {
	case account.RoleManager:
		items, err = h.Bills.ListAll(r.Context())
	case account.RoleCustomer:
		items, err = h.Bills.ListByCustomer(r.Context(), actor.UserID)
	default:
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "role not permitted")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	b, err := h.Bills.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if actor.Role != account.RoleManager && b.CustomerID != actor.UserID {
		writeError(w, ErrNotFound)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"bill": b})
}

type CreateBillRequest struct {
	CustomerID string `json:"customerId" validate:"required,uuid"`
	BookingID  string `json:"bookingId" validate:"omitempty,uuid"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := api.ActorFromContext(r.Context())

	var req CreateBillRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, err)
		return
	}

	b, err := h.Bills.Create(r.Context(), actor, req.CustomerID, req.BookingID)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"bill": b})
}

type AddItemRequest struct {
	Description string `json:"description" validate:"required,max=500"`
	Amount      string `json:"amount" validate:"required"`
}

func (h Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := api.ActorFromContext(r.Context())

	var req AddItemRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	b, err := h.Bills.AddItem(r.Context(), actor, chi.URLParam(r, "id"), NewItem{Description: req.Description, Amount: amount})
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"bill": b})
}

func (h Handlers) Recompute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	total, err := h.Bills.RecomputeTotal(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "totalAmount": total.StringFixed(scale)})
}

func (h Handlers) Pay(w http.ResponseWriter, r *http.Request) {
	actor, _ := api.ActorFromContext(r.Context())

	b, err := h.Bills.MarkPaid(r.Context(), actor, chi.URLParam(r, "id"), time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"bill": b})
}

func writeError(w http.ResponseWriter, err error) {
	var ve validate.ValidationError
	switch {
	case errors.As(err, &ve):
		api.WriteError(w, http.StatusBadRequest, ve.Code, ve.Message)
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "bill not found")
	case errors.Is(err, ErrAlreadyPaid):
		api.WriteError(w, http.StatusConflict, "BILL_ALREADY_PAID", "bill is already paid")
	default:
		log.Printf("[billing] internal error: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
