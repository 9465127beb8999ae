package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"hostel/internal/account"
)

const (
	EntityRequest = "service_request"
	EntityBill    = "bill"
	EntityBooking = "booking"
	EntityRoom    = "room"
	EntityService = "service"
)

// Insert records a privileged mutation inside tx.
func Insert(ctx context.Context, tx pgx.Tx, actor account.Actor, entity, entityID, action string, metadata any) error {
	var s *string
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		str := string(b)
		s = &str
	}
	role := string(actor.Role)
	if role == "" {
		role = "system"
	}
	actorID := actor.UserID
	if actorID == "" {
		actorID = "system"
	}
	const q = `
INSERT INTO audit_logs (actor_id, actor_role, entity, entity_id, action, metadata)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err := tx.Exec(ctx, q, actorID, role, entity, entityID, action, s)
	return err
}
