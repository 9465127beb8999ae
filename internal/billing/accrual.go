package billing

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	kafkago "github.com/segmentio/kafka-go"

	"hostel/internal/account"
	"hostel/internal/audit"
	"hostel/internal/kafka"
	"hostel/internal/redisx"
	"hostel/internal/request"
	"hostel/pkg/db"
)

const dedupConsumer = "billing"

// Accrual adds a bill item for every completed service request.
type Accrual struct {
	DB  *pgxpool.Pool
	Rdb *redis.Client
}

var systemActor = account.Actor{UserID: "billing-accrual"}

// HandleTransition is a kafka.Handler for request.TopicTransitioned.
// It returns nil for messages it deliberately skips so their offsets are committed. Any other
// error is retried by the consumer and holds back the partition until it clears.
func (a *Accrual) HandleTransition(ctx context.Context, m kafkago.Message) error {
	if t, ok := kafka.Header(m, "x-event-type"); ok && t != request.EventTransitioned {
		return nil
	}

	var env request.Envelope
	if err := kafka.UnmarshalEnvelope(m.Value, &env); err != nil {
		log.Printf("[billing] skipping undecodable message at offset %d: %v", m.Offset, err)
		return nil
	}
	p, err := kafka.UnwrapPayload[request.TransitionedPayload](env.Payload)
	if err != nil {
		log.Printf("[billing] skipping event %s: %v", env.EventID, err)
		return nil
	}
	if p.To != request.StatusCompleted {
		return nil
	}

	key := fmt.Sprintf(redisx.KeyDedup, dedupConsumer, p.RequestID)
	if a.Rdb != nil {
		if seen, err := redisx.Exists(ctx, a.Rdb, key); err == nil && seen {
			return nil
		}
	}

	var billed bool
	err = db.WithTx(ctx, a.DB, func(tx pgx.Tx) error {
		name, price, err := request.ServicePrice(ctx, tx, p.RequestID)
		if errors.Is(err, pgx.ErrNoRows) {
			// Retrying cannot bring the row back.
			log.Printf("[billing] skipping unknown request %s", p.RequestID)
			return nil
		}
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(price)
		if err != nil {
			return err
		}

		billID, err := OpenBillForUpdate(ctx, tx, p.CustomerID)
		if err != nil {
			return err
		}
		billed, err = InsertItem(ctx, tx, billID, NewItem{
			Description:      name,
			Amount:           amount,
			ServiceRequestID: p.RequestID,
		})
		if err != nil || !billed {
			return err
		}
		if _, err := Recompute(ctx, tx, billID); err != nil {
			return err
		}
		return audit.Insert(ctx, tx, systemActor, audit.EntityBill, billID, "BILL_ITEM_ACCRUED", map[string]any{
			"requestId": p.RequestID,
			"amount":    amount.String(),
			"eventId":   env.EventID,
		})
	})
	if err != nil {
		return fmt.Errorf("accrue request %s: %w", p.RequestID, err)
	}

	if a.Rdb != nil {
		if err := redisx.MarkDone(ctx, a.Rdb, key); err != nil {
			log.Printf("[billing] dedup mark %s: %v", p.RequestID, err)
		}
	}
	if billed {
		log.Printf("[billing] accrued request %s for customer %s", p.RequestID, p.CustomerID)
	}
	return nil
}
