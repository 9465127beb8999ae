package room

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"hostel/internal/api"
	"hostel/internal/validate"
)

type Handlers struct {
	Rooms *Repository
}

func (h Handlers) ListAvailable(w http.ResponseWriter, r *http.Request) {
	st := StatusAvailable
	items, err := h.Rooms.List(r.Context(), &st)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.Rooms.List(r.Context(), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

type CreateRequest struct {
	RoomNumber    string   `json:"roomNumber" validate:"required,max=20"`
	RoomType      string   `json:"roomType" validate:"required,max=50"`
	Capacity      int      `json:"capacity" validate:"required,gt=0"`
	Description   string   `json:"description" validate:"max=2000"`
	PricePerNight string   `json:"pricePerNight" validate:"required"`
	Amenities     []string `json:"amenities" validate:"dive,required"`
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
	price, err := decimal.NewFromString(req.PricePerNight)
	if err != nil || price.IsNegative() {
		writeError(w, validate.ValidationError{Code: "ROOM_PRICE_INVALID", Message: "pricePerNight must be a non-negative decimal"})
		return
	}

	rm, err := h.Rooms.Create(r.Context(), actor, NewRoom{
		RoomNumber:    req.RoomNumber,
		RoomType:      req.RoomType,
		Capacity:      req.Capacity,
		Description:   req.Description,
		PricePerNight: price,
		Amenities:     req.Amenities,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"room": rm})
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h Handlers) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := api.ActorFromContext(r.Context())

	var req StatusRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	st, err := ParseStatus(req.Status)
	if err != nil {
		writeError(w, validate.Failed("invalid status"))
		return
	}

	rm, err := h.Rooms.SetStatus(r.Context(), actor, chi.URLParam(r, "id"), st)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"room": rm})
}

func writeError(w http.ResponseWriter, err error) {
	var ve validate.ValidationError
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &ve):
		api.WriteError(w, http.StatusBadRequest, ve.Code, ve.Message)
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "room not found")
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		api.WriteError(w, http.StatusConflict, "ROOM_NUMBER_TAKEN", "room number already exists")
	default:
		log.Printf("[room] internal error: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
