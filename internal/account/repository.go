package account

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNoRole = errors.New("account has no role")

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) RoleOf(ctx context.Context, userID string) (Role, error) {
	const q = `SELECT role::text FROM user_roles WHERE user_id = $1`
	var role string
	if err := r.db.QueryRow(ctx, q, userID).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoRole
		}
		return "", err
	}
	return ParseRole(role)
}

func (r *Repository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	const q = `
SELECT p.id, p.email, p.full_name, COALESCE(p.phone,''), ur.role::text, p.created_at
FROM profiles p
JOIN user_roles ur ON ur.user_id = p.id
WHERE p.id = $1
`
	var p Profile
	if err := r.db.QueryRow(ctx, q, userID).Scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &p.Role, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListByRole(ctx context.Context, role Role) ([]Profile, error) {
	const q = `
SELECT p.id, p.email, p.full_name, COALESCE(p.phone,''), ur.role::text, p.created_at
FROM user_roles ur
JOIN profiles p ON p.id = ur.user_id
WHERE ur.role = $1
ORDER BY p.full_name ASC
`
	rows, err := r.db.Query(ctx, q, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &p.Role, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
