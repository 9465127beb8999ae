package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	TypeRequestCreated      = "request.created"
	TypeRequestTransitioned = "request.transitioned"
)

// Insert appends a timeline row for a service request inside tx.
func Insert(ctx context.Context, tx pgx.Tx, requestID, eventType, summary, actor string, occurredAt time.Time, data any) error {
	var s *string
	if data != nil {
		b, _ := json.Marshal(data)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO request_events (request_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err := tx.Exec(ctx, q, requestID, eventType, summary, actor, occurredAt, s)
	return err
}
