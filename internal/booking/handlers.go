package booking

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hostel/internal/account"
	"hostel/internal/api"
	"hostel/internal/validate"
)

type Handlers struct {
	Bookings *Repository
}

type StayRequest struct {
	RoomID       string `json:"roomId" validate:"required,uuid"`
	CheckInDate  string `json:"checkInDate" validate:"required"`
	CheckOutDate string `json:"checkOutDate" validate:"required"`
}

func (h Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	var req StayRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, err)
		return
	}
	in, out, err := ParseDates(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		writeError(w, err)
		return
	}

	nightly, err := h.Bookings.NightlyPrice(r.Context(), req.RoomID)
	if err != nil {
		writeError(w, err)
		return
	}
	total, nights, err := Quote(in, out, nightly)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"roomId":        req.RoomID,
		"nights":        nights,
		"pricePerNight": nightly.StringFixed(2),
		"totalPrice":    total.StringFixed(2),
	})
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := api.ActorFromContext(r.Context())

	var req StayRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, err)
		return
	}
	in, out, err := ParseDates(req.CheckInDate, req.CheckOutDate)
	if err != nil {
		writeError(w, err)
		return
	}

	b, err := h.Bookings.Create(r.Context(), actor, req.RoomID, in, out)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"booking": b})
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var (
		items []Booking
		err   error
	)
	if actor.Role == account.RoleManager {
		items, err = h.Bookings.ListAll(r.Context())
	} else {
		items, err = h.Bookings.ListByCustomer(r.Context(), actor.UserID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, _ := api.ActorFromContext(r.Context())

	b, err := h.Bookings.Cancel(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": b})
}

func writeError(w http.ResponseWriter, err error) {
	var ve validate.ValidationError
	switch {
	case errors.As(err, &ve):
		api.WriteError(w, http.StatusBadRequest, ve.Code, ve.Message)
	case errors.Is(err, ErrRoomUnavailable):
		api.WriteError(w, http.StatusConflict, "ROOM_UNAVAILABLE", err.Error())
	case errors.Is(err, ErrNotCancellable):
		api.WriteError(w, http.StatusConflict, "BOOKING_NOT_CANCELLABLE", err.Error())
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
	default:
		log.Printf("[booking] internal error: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
