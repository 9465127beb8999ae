package overview

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"hostel/internal/api"
	"hostel/internal/redisx"
)

type Overview struct {
	TotalBookings    int            `json:"totalBookings"`
	ActiveBookings   int            `json:"activeBookings"`
	TotalRequests    int            `json:"totalRequests"`
	RequestsByStatus map[string]int `json:"requestsByStatus"`
	Revenue          string         `json:"revenue"`
	PaidRevenue      string         `json:"paidRevenue"`
	Workers          int            `json:"workers"`
}

// Load computes the manager dashboard figures. Revenue is the sum of bill totals.
func Load(ctx context.Context, db *pgxpool.Pool) (*Overview, error) {
	o := &Overview{RequestsByStatus: map[string]int{}}

	const qCounts = `
SELECT
  (SELECT COUNT(*) FROM bookings),
  (SELECT COUNT(*) FROM bookings WHERE status = 'confirmed' AND check_out_date >= CURRENT_DATE),
  (SELECT COUNT(*) FROM service_requests),
  (SELECT COALESCE(SUM(total_amount), 0)::text FROM bills),
  (SELECT COALESCE(SUM(total_amount) FILTER (WHERE paid), 0)::text FROM bills),
  (SELECT COUNT(*) FROM user_roles WHERE role = 'worker')
`
	if err := db.QueryRow(ctx, qCounts).Scan(
		&o.TotalBookings, &o.ActiveBookings, &o.TotalRequests, &o.Revenue, &o.PaidRevenue, &o.Workers,
	); err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `SELECT status::text, COUNT(*) FROM service_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		o.RequestsByStatus[st] = n
	}
	return o, rows.Err()
}

type Handlers struct {
	DB  *pgxpool.Pool
	Rdb *redis.Client
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	key := fmt.Sprintf(redisx.KeyOverview, "all")
	if h.Rdb != nil {
		if b, err := h.Rdb.Get(r.Context(), key).Bytes(); err == nil {
			var o Overview
			if json.Unmarshal(b, &o) == nil {
				api.WriteJSON(w, http.StatusOK, o)
				return
			}
		}
	}

	o, err := Load(r.Context(), h.DB)
	if err != nil {
		log.Printf("[overview] load failed: %v", err)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if h.Rdb != nil {
		b, _ := json.Marshal(o)
		if err := h.Rdb.Set(r.Context(), key, b, redisx.TTLOverview).Err(); err != nil {
			log.Printf("[overview] cache set: %v", err)
		}
	}
	api.WriteJSON(w, http.StatusOK, o)
}
