package events

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Event struct {
	ID         string          `json:"id"`
	RequestID  string          `json:"requestId"`
	EventType  string          `json:"eventType"`
	Summary    string          `json:"summary"`
	Actor      string          `json:"actor"`
	OccurredAt string          `json:"occurredAt"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func ListByRequest(ctx context.Context, db *pgxpool.Pool, requestID string) ([]Event, error) {
	const q = `
SELECT id, request_id, event_type, summary, actor, occurred_at::text, COALESCE(data, '{}'::jsonb)::text
FROM request_events
WHERE request_id = $1
ORDER BY occurred_at ASC, created_at ASC
`
	rows, err := db.Query(ctx, q, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.EventType, &e.Summary, &e.Actor, &e.OccurredAt, &data); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}
