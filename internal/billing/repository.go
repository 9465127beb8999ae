package billing

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

const selectBill = `
SELECT id, customer_id, COALESCE(booking_id::text, ''), total_amount::text, paid, payment_date, created_at, updated_at
FROM bills
`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	if err := row.Scan(&b.ID, &b.CustomerID, &b.BookingID, &b.TotalAmount, &b.Paid, &b.PaymentDate, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repository) listWhere(ctx context.Context, where string, args ...any) ([]Bill, error) {
	rows, err := r.db.Query(ctx, selectBill+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string) ([]Bill, error) {
	return r.listWhere(ctx, `WHERE customer_id = $1`, customerID)
}

func (r *Repository) ListAll(ctx context.Context) ([]Bill, error) {
	return r.listWhere(ctx, ``)
}

// Get returns the bill with its items.
func (r *Repository) Get(ctx context.Context, billID string) (*Bill, error) {
	b, err := scanBill(r.db.QueryRow(ctx, selectBill+`WHERE id = $1`, billID))
	if err != nil {
		return nil, err
	}
	items, err := listItems(ctx, r.db, billID)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return b, nil
}

func (r *Repository) Create(ctx context.Context, actor account.Actor, customerID, bookingID string) (*Bill, error) {
	var id string
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
INSERT INTO bills (customer_id, booking_id)
VALUES ($1, NULLIF($2, '')::uuid)
RETURNING id
`
		if err := tx.QueryRow(ctx, q, customerID, bookingID).Scan(&id); err != nil {
			return err
		}
		return audit.Insert(ctx, tx, actor, audit.EntityBill, id, "BILL_CREATED", map[string]any{"customerId": customerID, "bookingId": bookingID})
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

type NewItem struct {
	Description      string
	Amount           decimal.Decimal
	ServiceRequestID string
}

// AddItem appends an item to an unpaid bill and recomputes its total.
func (r *Repository) AddItem(ctx context.Context, actor account.Actor, billID string, in NewItem) (*Bill, error) {
	if _, err := ComputeTotal([]Item{{Amount: in.Amount}}); err != nil {
		return nil, err
	}
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := GetForUpdate(ctx, tx, billID)
		if err != nil {
			return err
		}
		if b.Paid {
			return ErrAlreadyPaid
		}
		if _, err := InsertItem(ctx, tx, billID, in); err != nil {
			return err
		}
		if _, err := Recompute(ctx, tx, billID); err != nil {
			return err
		}
		return audit.Insert(ctx, tx, actor, audit.EntityBill, billID, "BILL_ITEM_ADDED", map[string]any{"description": in.Description, "amount": in.Amount.String()})
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, billID)
}

// RecomputeTotal sets total_amount from the current items. Running it twice changes nothing.
func (r *Repository) RecomputeTotal(ctx context.Context, billID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := GetForUpdate(ctx, tx, billID); err != nil {
			return err
		}
		t, err := Recompute(ctx, tx, billID)
		total = t
		return err
	})
	return total, err
}

// MarkPaid finalizes the total and marks the bill paid.
func (r *Repository) MarkPaid(ctx context.Context, actor account.Actor, billID string, now time.Time) (*Bill, error) {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := GetForUpdate(ctx, tx, billID)
		if err != nil {
			return err
		}
		if b.Paid {
			return ErrAlreadyPaid
		}
		total, err := Recompute(ctx, tx, billID)
		if err != nil {
			return err
		}
		const q = `UPDATE bills SET paid = TRUE, payment_date = $1, updated_at = NOW() WHERE id = $2`
		if _, err := tx.Exec(ctx, q, now, billID); err != nil {
			return err
		}
		return audit.Insert(ctx, tx, actor, audit.EntityBill, billID, "BILL_PAID", map[string]any{"total": total.String()})
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, billID)
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, billID string) (*Bill, error) {
	return scanBill(tx.QueryRow(ctx, selectBill+`WHERE id = $1 FOR UPDATE`, billID))
}

// OpenBillForUpdate locks the customer's newest unpaid bill, creating one if there is none.
func OpenBillForUpdate(ctx context.Context, tx pgx.Tx, customerID string) (string, error) {
	// Serializes find-or-create per customer until tx ends; FOR UPDATE alone cannot lock a row
	// that does not exist yet.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('open_bill:' || $1::text))`, customerID); err != nil {
		return "", err
	}

	const qFind = `
SELECT id FROM bills
WHERE customer_id = $1 AND paid = FALSE
ORDER BY created_at DESC
LIMIT 1
FOR UPDATE
`
	var id string
	err := tx.QueryRow(ctx, qFind, customerID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	const qCreate = `INSERT INTO bills (customer_id) VALUES ($1) RETURNING id`
	err = tx.QueryRow(ctx, qCreate, customerID).Scan(&id)
	return id, err
}

// InsertItem reports false when the service request was already billed.
func InsertItem(ctx context.Context, tx pgx.Tx, billID string, in NewItem) (bool, error) {
	const q = `
INSERT INTO bill_items (bill_id, service_request_id, description, amount)
VALUES ($1, NULLIF($2, '')::uuid, $3, $4::text::numeric)
ON CONFLICT (service_request_id) DO NOTHING
`
	tag, err := tx.Exec(ctx, q, billID, in.ServiceRequestID, in.Description, in.Amount.String())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Recompute writes ComputeTotal(items) to the bill. The caller holds the row lock.
func Recompute(ctx context.Context, tx pgx.Tx, billID string) (decimal.Decimal, error) {
	items, err := listItems(ctx, tx, billID)
	if err != nil {
		return decimal.Zero, err
	}
	total, err := ComputeTotal(items)
	if err != nil {
		return decimal.Zero, err
	}
	const q = `UPDATE bills SET total_amount = $1::text::numeric, updated_at = NOW() WHERE id = $2`
	if _, err := tx.Exec(ctx, q, total.StringFixed(scale), billID); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listItems(ctx context.Context, q querier, billID string) ([]Item, error) {
	const sql = `
SELECT id, bill_id, COALESCE(service_request_id::text, ''), description, amount::text, created_at
FROM bill_items
WHERE bill_id = $1
ORDER BY created_at ASC
`
	rows, err := q.Query(ctx, sql, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		var it Item
		var amount string
		if err := rows.Scan(&it.ID, &it.BillID, &it.ServiceRequestID, &it.Description, &amount, &it.CreatedAt); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		it.Amount = d
		out = append(out, it)
	}
	return out, rows.Err()
}
