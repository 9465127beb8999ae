package catalog

import (
	"context"
	"errors"

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

const selectService = `
SELECT id, name, COALESCE(description, ''), price::text, service_type::text, is_available, created_at, updated_at
FROM services
`

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	var typ string
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Price, &typ, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Type = Type(typ)
	return &s, nil
}

func (r *Repository) List(ctx context.Context, onlyAvailable bool) ([]Service, error) {
	q := selectService
	if onlyAvailable {
		q += `WHERE is_available `
	}
	rows, err := r.db.Query(ctx, q+`ORDER BY service_type, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (*Service, error) {
	return scanService(r.db.QueryRow(ctx, selectService+`WHERE id = $1`, id))
}

type NewService struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Type        Type
}

func (r *Repository) Create(ctx context.Context, actor account.Actor, in NewService) (*Service, error) {
	var out *Service
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
INSERT INTO services (name, description, price, service_type)
VALUES ($1, NULLIF($2, ''), $3::text::numeric, $4::service_type)
RETURNING id, name, COALESCE(description, ''), price::text, service_type::text, is_available, created_at, updated_at
`
		s, err := scanService(tx.QueryRow(ctx, q, in.Name, in.Description, in.Price.StringFixed(2), string(in.Type)))
		if err != nil {
			return err
		}
		out = s
		return audit.Insert(ctx, tx, actor, audit.EntityService, s.ID, "SERVICE_CREATED", map[string]any{"name": s.Name, "price": s.Price})
	})
	return out, err
}

func (r *Repository) SetAvailability(ctx context.Context, actor account.Actor, id string, available bool) (*Service, error) {
	var out *Service
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `
UPDATE services SET is_available = $1, updated_at = NOW()
WHERE id = $2
RETURNING id, name, COALESCE(description, ''), price::text, service_type::text, is_available, created_at, updated_at
`
		s, err := scanService(tx.QueryRow(ctx, q, available, id))
		if err != nil {
			return err
		}
		out = s
		return audit.Insert(ctx, tx, actor, audit.EntityService, id, "SERVICE_AVAILABILITY_CHANGED", map[string]any{"isAvailable": available})
	})
	return out, err
}
