package room

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"hostel/internal/account"
	"hostel/internal/audit"
	"hostel/pkg/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const roomColumns = `id, room_number, room_type, capacity, COALESCE(description, ''), price_per_night::text, status::text, amenities, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	var rm Room
	var status string
	if err := row.Scan(&rm.ID, &rm.RoomNumber, &rm.RoomType, &rm.Capacity, &rm.Description, &rm.PricePerNight,
		&status, &rm.Amenities, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rm.Status = Status(status)
	if rm.Amenities == nil {
		rm.Amenities = []string{}
	}
	return &rm, nil
}

func (r *Repository) List(ctx context.Context, status *Status) ([]Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms`
	var args []any
	if status != nil {
		q += ` WHERE status = $1::room_status`
		args = append(args, string(*status))
	}
	rows, err := r.db.Query(ctx, q+` ORDER BY room_number`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

type NewRoom struct {
	RoomNumber    string
	RoomType      string
	Capacity      int
	Description   string
	PricePerNight decimal.Decimal
	Amenities     []string
}

func (r *Repository) Create(ctx context.Context, actor account.Actor, in NewRoom) (*Room, error) {
	if in.Amenities == nil {
		in.Amenities = []string{}
	}
	var out *Room
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		q := `
INSERT INTO rooms (room_number, room_type, capacity, description, price_per_night, amenities)
VALUES ($1, $2, $3, NULLIF($4, ''), $5::text::numeric, $6)
RETURNING ` + roomColumns
		rm, err := scanRoom(tx.QueryRow(ctx, q, in.RoomNumber, in.RoomType, in.Capacity, in.Description, in.PricePerNight.StringFixed(2), in.Amenities))
		if err != nil {
			return err
		}
		out = rm
		return audit.Insert(ctx, tx, actor, audit.EntityRoom, rm.ID, "ROOM_CREATED", map[string]any{"roomNumber": rm.RoomNumber})
	})
	return out, err
}

func (r *Repository) SetStatus(ctx context.Context, actor account.Actor, id string, status Status) (*Room, error) {
	var out *Room
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		q := `UPDATE rooms SET status = $1::room_status, updated_at = NOW() WHERE id = $2 RETURNING ` + roomColumns
		rm, err := scanRoom(tx.QueryRow(ctx, q, string(status), id))
		if err != nil {
			return err
		}
		out = rm
		return audit.Insert(ctx, tx, actor, audit.EntityRoom, id, "ROOM_STATUS_CHANGED", map[string]any{"status": status})
	})
	return out, err
}

// SyncOccupancy marks rooms with a confirmed booking covering day as occupied and frees the rest.
// Rooms under maintenance are left alone. It returns how many rows changed.
func (r *Repository) SyncOccupancy(ctx context.Context, day time.Time) (int64, error) {
	const q = `
WITH wanted AS (
  SELECT rm.id,
         CASE WHEN EXISTS (
           SELECT 1 FROM bookings b
           WHERE b.room_id = rm.id AND b.status = 'confirmed'
             AND b.check_in_date <= $1::date AND b.check_out_date > $1::date
         ) THEN 'occupied'::room_status ELSE 'available'::room_status END AS status
  FROM rooms rm
  WHERE rm.status <> 'maintenance'
)
UPDATE rooms SET status = wanted.status, updated_at = NOW()
FROM wanted
WHERE rooms.id = wanted.id AND rooms.status <> wanted.status
`
	tag, err := r.db.Exec(ctx, q, day.Format("2006-01-02"))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
