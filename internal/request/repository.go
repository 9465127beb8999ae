package request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hostel/internal/account"
	"hostel/internal/audit"
	"hostel/internal/events"
	"hostel/pkg/db"
)

var (
	ErrNotFound           = errors.New("service request not found")
	ErrServiceUnavailable = errors.New("service is not available")
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const selectRequest = `
SELECT sr.id, sr.customer_id, sr.service_id, s.name, p.full_name, COALESCE(sr.worker_id::text, ''),
       sr.status::text, COALESCE(sr.customer_notes, ''), COALESCE(sr.worker_notes, ''),
       sr.scheduled_time, sr.completed_time, sr.created_at, sr.updated_at
FROM service_requests sr
JOIN services s ON s.id = sr.service_id
JOIN profiles p ON p.id = sr.customer_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*ServiceRequest, error) {
	var sr ServiceRequest
	var status string
	if err := row.Scan(
		&sr.ID, &sr.CustomerID, &sr.ServiceID, &sr.ServiceName, &sr.CustomerName, &sr.WorkerID,
		&status, &sr.CustomerNotes, &sr.WorkerNotes,
		&sr.ScheduledTime, &sr.CompletedTime, &sr.CreatedAt, &sr.UpdatedAt,
	); err != nil {
		return nil, err
	}
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	sr.Status = st
	return &sr, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*ServiceRequest, error) {
	sr, err := scanRequest(r.db.QueryRow(ctx, selectRequest+`WHERE sr.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sr, err
}

// GetVisible returns the request only if actor may see it.
func (r *Repository) GetVisible(ctx context.Context, actor account.Actor, id string) (*ServiceRequest, error) {
	sr, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Visible(*sr, actor) {
		return nil, ErrNotFound
	}
	return sr, nil
}

// Visible reports whether actor is allowed to read req.
// Customers see their own; workers see the pending queue and what they hold; managers see everything.
func Visible(req ServiceRequest, actor account.Actor) bool {
	switch actor.Role {
	case account.RoleManager:
		return true
	case account.RoleWorker:
		return req.Status == StatusPending || req.WorkerID == actor.UserID
	case account.RoleCustomer:
		return req.CustomerID == actor.UserID
	default:
		return false
	}
}

func (r *Repository) List(ctx context.Context, actor account.Actor, status *Status) ([]ServiceRequest, error) {
	var (
		where string
		args  []any
	)
	switch actor.Role {
	case account.RoleManager:
		where = `WHERE TRUE`
	case account.RoleWorker:
		where = `WHERE (sr.status = 'pending' OR sr.worker_id = $1)`
		args = append(args, actor.UserID)
	case account.RoleCustomer:
		where = `WHERE sr.customer_id = $1`
		args = append(args, actor.UserID)
	default:
		return []ServiceRequest{}, nil
	}
	if status != nil {
		args = append(args, string(*status))
		where += fmt.Sprintf(` AND sr.status = $%d::request_status`, len(args))
	}

	rows, err := r.db.Query(ctx, selectRequest+where+` ORDER BY sr.created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ServiceRequest{}
	for rows.Next() {
		sr, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sr)
	}
	return out, rows.Err()
}

// Create inserts a pending request for an available catalog service.
func (r *Repository) Create(ctx context.Context, actor account.Actor, in NewRequest) (*ServiceRequest, error) {
	var id string
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var available bool
		if err := tx.QueryRow(ctx, `SELECT is_available FROM services WHERE id = $1`, in.ServiceID).Scan(&available); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrServiceUnavailable
			}
			return err
		}
		if !available {
			return ErrServiceUnavailable
		}

		const q = `
INSERT INTO service_requests (customer_id, service_id, customer_notes, scheduled_time)
VALUES ($1, $2, NULLIF($3, ''), $4)
RETURNING id
`
		if err := tx.QueryRow(ctx, q, in.CustomerID, in.ServiceID, in.CustomerNotes, in.ScheduledTime).Scan(&id); err != nil {
			return err
		}

		now := time.Now()
		if err := events.Insert(ctx, tx, id, events.TypeRequestCreated, "Request created", actor.String(), now, map[string]any{"serviceId": in.ServiceID}); err != nil {
			return err
		}
		return audit.Insert(ctx, tx, actor, audit.EntityRequest, id, "REQUEST_CREATED", map[string]any{"serviceId": in.ServiceID})
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// CompareAndSwap writes next only if the row still carries prev's status and worker.
// The timeline event (with note) and audit row are written in the same transaction.
func (r *Repository) CompareAndSwap(ctx context.Context, actor account.Actor, prev, next ServiceRequest, note string) (*ServiceRequest, error) {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
UPDATE service_requests
SET status = $1::request_status,
    worker_id = NULLIF($2, '')::uuid,
    worker_notes = NULLIF($3, ''),
    completed_time = $4,
    updated_at = NOW()
WHERE id = $5
  AND status = $6::request_status
  AND worker_id IS NOT DISTINCT FROM NULLIF($7, '')::uuid
`
		tag, err := tx.Exec(ctx, q,
			string(next.Status), next.WorkerID, next.WorkerNotes, next.CompletedTime,
			prev.ID, string(prev.Status), prev.WorkerID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}

		data := transitionData(prev, next, note)
		summary := fmt.Sprintf("Status changed to %s", next.Status)
		if err := events.Insert(ctx, tx, prev.ID, events.TypeRequestTransitioned, summary, actor.String(), time.Now(), data); err != nil {
			return err
		}
		return audit.Insert(ctx, tx, actor, audit.EntityRequest, prev.ID, "STATUS_CHANGED", data)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, prev.ID)
}

func transitionData(prev, next ServiceRequest, note string) map[string]any {
	data := map[string]any{"from": prev.Status, "to": next.Status}
	if next.WorkerID != "" {
		data["workerId"] = next.WorkerID
	}
	if note != "" {
		data["note"] = note
	}
	return data
}

// ServicePrice returns the catalog price of the service a request was raised for.
func ServicePrice(ctx context.Context, tx pgx.Tx, requestID string) (name string, price string, err error) {
	const q = `
SELECT s.name, s.price::text
FROM service_requests sr
JOIN services s ON s.id = sr.service_id
WHERE sr.id = $1
`
	err = tx.QueryRow(ctx, q, requestID).Scan(&name, &price)
	return name, price, err
}
