package request

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hostel/internal/account"
	"hostel/internal/api"
	"hostel/internal/events"
	"hostel/internal/validate"
)

type Handlers struct {
	DB          *pgxpool.Pool
	Requests    *Repository
	Lifecycle   *Lifecycle
	Cache       *StatusCache
	Idempotency *Idempotency
}

type CreateRequest struct {
	ServiceID     string     `json:"serviceId" validate:"required,uuid"`
	CustomerNotes string     `json:"customerNotes" validate:"max=2000"`
	ScheduledTime *time.Time `json:"scheduledTime"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var req CreateRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, err)
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey != "" && h.Idempotency != nil {
		if id, found := h.Idempotency.Lookup(r.Context(), actor.UserID, idemKey); found {
			if sr, err := h.Requests.GetVisible(r.Context(), actor, id); err == nil {
				api.WriteJSON(w, http.StatusOK, map[string]any{"request": sr})
				return
			}
		}
	}

	sr, err := h.Requests.Create(r.Context(), actor, NewRequest{
		CustomerID:    actor.UserID,
		ServiceID:     req.ServiceID,
		CustomerNotes: strings.TrimSpace(req.CustomerNotes),
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if idemKey != "" && h.Idempotency != nil {
		h.Idempotency.Remember(r.Context(), actor.UserID, idemKey, sr.ID)
	}
	if h.Cache != nil {
		h.Cache.Put(r.Context(), sr.ID, sr.Status)
	}

	api.WriteJSON(w, http.StatusCreated, map[string]any{"request": sr})
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var status *Status
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := ParseStatus(s)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
			return
		}
		status = &st
	}

	items, err := h.Requests.List(r.Context(), actor, status)
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

	sr, err := h.Requests.GetVisible(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"request": sr})
}

// Status serves the lightweight polling endpoint from Redis when possible.
func (h Handlers) Status(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}
	id := chi.URLParam(r, "id")

	// Visibility is checked against the row either way; only managers can skip it.
	if actor.Role == account.RoleManager && h.Cache != nil {
		if cs, found := h.Cache.Get(r.Context(), id); found {
			api.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "status": cs.Status, "updatedAt": cs.UpdatedAt, "cached": true})
			return
		}
	}

	sr, err := h.Requests.GetVisible(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Cache != nil {
		h.Cache.Put(r.Context(), sr.ID, sr.Status)
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"id": sr.ID, "status": sr.Status, "updatedAt": sr.UpdatedAt, "cached": false})
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.Requests.GetVisible(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}

	evs, err := events.ListByRequest(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": evs})
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted in_progress completed rejected"`
	Note   string `json:"note" validate:"max=2000"`
}

func (h Handlers) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var req TransitionRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, err)
		return
	}
	target, err := ParseStatus(req.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
		return
	}

	// No visibility check here: a worker acting on a request held by someone else must get
	// NOT_ASSIGNED_WORKER, not NOT_FOUND. The route is staff-only.
	sr, err := h.Lifecycle.Apply(r.Context(), actor, chi.URLParam(r, "id"), target, strings.TrimSpace(req.Note))
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"request": sr})
}

func writeError(w http.ResponseWriter, err error) {
	var ve validate.ValidationError
	switch {
	case errors.As(err, &ve):
		api.WriteError(w, http.StatusBadRequest, ve.Code, ve.Message)
	case errors.Is(err, ErrInvalidTransition):
		api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", err.Error())
	case errors.Is(err, ErrNotAssignedWorker):
		api.WriteError(w, http.StatusForbidden, "NOT_ASSIGNED_WORKER", err.Error())
	case errors.Is(err, ErrConflict):
		api.WriteError(w, http.StatusConflict, "CONFLICT", "request changed, refetch and retry")
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "service request not found")
	case errors.Is(err, ErrServiceUnavailable):
		api.WriteError(w, http.StatusConflict, "SERVICE_UNAVAILABLE", "service is not available")
	default:
		log.Printf("[request] internal error: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
