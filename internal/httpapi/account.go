package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5"

	"hostel/internal/account"
	"hostel/internal/api"
)

type accountHandlers struct {
	Accounts *account.Repository
}

func (h accountHandlers) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}
	p, err := h.Accounts.GetProfile(r.Context(), actor.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "profile not found")
			return
		}
		log.Printf("[account] profile %s: %v", actor.UserID, err)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"profile": p})
}

func (h accountHandlers) Workers(w http.ResponseWriter, r *http.Request) {
	items, err := h.Accounts.ListByRole(r.Context(), account.RoleWorker)
	if err != nil {
		log.Printf("[account] list workers: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []account.Profile{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}
