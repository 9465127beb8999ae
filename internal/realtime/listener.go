package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
)

const Channel = "row_changes"

// PGListener feeds the hub from Postgres NOTIFY on Channel.
// It needs a dedicated, non-pooled connection: LISTEN does not survive transaction pooling.
type PGListener struct {
	Conn *pgx.Conn
	Hub  *Hub
}

// Run blocks until ctx is cancelled or the connection fails.
func (l *PGListener) Run(ctx context.Context) error {
	if _, err := l.Conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", Channel, err)
	}
	log.Printf("[realtime] listening on %s", Channel)

	for {
		n, err := l.Conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		c, err := decodeNotification(n.Payload)
		if err != nil {
			log.Printf("[realtime] bad payload: %v", err)
			continue
		}
		l.Hub.Publish(c)
	}
}

func decodeNotification(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, err
	}
	if c.Table == "" {
		return Change{}, fmt.Errorf("missing table in %q", payload)
	}
	return c, nil
}
