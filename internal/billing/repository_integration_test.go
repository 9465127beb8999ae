package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel/internal/account"
	"hostel/pkg/db"
	"hostel/pkg/db/dbtest"
)

func TestOpenBillForUpdate_ConcurrentCallersShareOneBill(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	customerID := dbtest.User(t, pool, "customer")

	const n = 8
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
				id, err := OpenBillForUpdate(ctx, tx, customerID)
				ids <- id
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM bills WHERE customer_id = $1`, customerID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRepository_MarkPaidFinalizesTotal(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	mgr := account.Actor{UserID: dbtest.User(t, pool, "manager"), Role: account.RoleManager}
	customerID := dbtest.User(t, pool, "customer")

	b, err := repo.Create(ctx, mgr, customerID, "")
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, mgr, b.ID, NewItem{Description: "Laundry", Amount: decimal.RequireFromString("10")})
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, mgr, b.ID, NewItem{Description: "Spa", Amount: decimal.RequireFromString("15.5")})
	require.NoError(t, err)

	// Drift the stored total; paying must recompute it from the items.
	_, err = pool.Exec(ctx, `UPDATE bills SET total_amount = 0 WHERE id = $1`, b.ID)
	require.NoError(t, err)

	paid, err := repo.MarkPaid(ctx, mgr, b.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	assert.NotNil(t, paid.PaymentDate)
	assert.True(t, decimal.RequireFromString(paid.TotalAmount).Equal(decimal.RequireFromString("25.5")))

	_, err = repo.MarkPaid(ctx, mgr, b.ID, time.Now())
	assert.True(t, errors.Is(err, ErrAlreadyPaid))
	_, err = repo.AddItem(ctx, mgr, b.ID, NewItem{Description: "Late", Amount: decimal.RequireFromString("1")})
	assert.True(t, errors.Is(err, ErrAlreadyPaid))
}
