package booking

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

const selectBooking = `
SELECT b.id, b.customer_id, b.room_id, r.room_number, b.check_in_date::text, b.check_out_date::text,
       b.total_price::text, b.status, b.created_at, b.updated_at
FROM bookings b
JOIN rooms r ON r.id = b.room_id
`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(&b.ID, &b.CustomerID, &b.RoomID, &b.RoomNumber, &b.CheckInDate, &b.CheckOutDate,
		&b.TotalPrice, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repository) list(ctx context.Context, where string, args ...any) ([]Booking, error) {
	rows, err := r.db.Query(ctx, selectBooking+where+` ORDER BY b.check_in_date DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]Booking, error) {
	return r.list(ctx, `WHERE b.customer_id = $1`, customerID)
}

func (r *Repository) ListAll(ctx context.Context) ([]Booking, error) {
	return r.list(ctx, ``)
}

// NightlyPrice returns the room's current price for quoting.
func (r *Repository) NightlyPrice(ctx context.Context, roomID string) (decimal.Decimal, error) {
	var price string
	if err := r.db.QueryRow(ctx, `SELECT price_per_night::text FROM rooms WHERE id = $1`, roomID).Scan(&price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrRoomUnavailable
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(price)
}

// Create books roomID for the stay. The room row is locked so two customers cannot book overlapping dates.
// The price is always computed here from the room's nightly rate.
func (r *Repository) Create(ctx context.Context, actor account.Actor, roomID string, checkIn, checkOut time.Time) (*Booking, error) {
	var id string
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var status, price string
		const qRoom = `SELECT status::text, price_per_night::text FROM rooms WHERE id = $1 FOR UPDATE`
		if err := tx.QueryRow(ctx, qRoom, roomID).Scan(&status, &price); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRoomUnavailable
			}
			return err
		}
		if status != "available" {
			return ErrRoomUnavailable
		}

		const qOverlap = `
SELECT EXISTS (
  SELECT 1 FROM bookings
  WHERE room_id = $1 AND status = 'confirmed'
    AND check_in_date < $3 AND check_out_date > $2
)
`
		var overlap bool
		if err := tx.QueryRow(ctx, qOverlap, roomID, checkIn, checkOut).Scan(&overlap); err != nil {
			return err
		}
		if overlap {
			return ErrRoomUnavailable
		}

		nightly, err := decimal.NewFromString(price)
		if err != nil {
			return err
		}
		total, nights, err := Quote(checkIn, checkOut, nightly)
		if err != nil {
			return err
		}

		const qInsert = `
INSERT INTO bookings (customer_id, room_id, check_in_date, check_out_date, total_price)
VALUES ($1, $2, $3, $4, $5::text::numeric)
RETURNING id
`
		if err := tx.QueryRow(ctx, qInsert, actor.UserID, roomID, checkIn, checkOut, total.StringFixed(2)).Scan(&id); err != nil {
			return err
		}
		return audit.Insert(ctx, tx, actor, audit.EntityBooking, id, "BOOKING_CREATED", map[string]any{
			"roomId": roomID,
			"nights": nights,
			"total":  total.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}
	return scanBooking(r.db.QueryRow(ctx, selectBooking+`WHERE b.id = $1`, id))
}

// Cancel cancels a confirmed booking owned by actor.
func (r *Repository) Cancel(ctx context.Context, actor account.Actor, bookingID string) (*Booking, error) {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var customerID, status string
		const q = `SELECT customer_id, status FROM bookings WHERE id = $1 FOR UPDATE`
		if err := tx.QueryRow(ctx, q, bookingID).Scan(&customerID, &status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if customerID != actor.UserID {
			return ErrNotFound
		}
		if status != StatusConfirmed {
			return ErrNotCancellable
		}
		if _, err := tx.Exec(ctx, `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`, StatusCancelled, bookingID); err != nil {
			return err
		}
		return audit.Insert(ctx, tx, actor, audit.EntityBooking, bookingID, "BOOKING_CANCELLED", nil)
	})
	if err != nil {
		return nil, err
	}
	return scanBooking(r.db.QueryRow(ctx, selectBooking+`WHERE b.id = $1`, bookingID))
}
