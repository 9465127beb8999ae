package request

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"hostel/internal/account"
	"hostel/internal/events"
	"hostel/pkg/db/dbtest"
)

func TestRepository_CompareAndSwap(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRepository(pool)

	cust := account.Actor{UserID: dbtest.User(t, pool, "customer"), Role: account.RoleCustomer}
	a := account.Actor{UserID: dbtest.User(t, pool, "worker"), Role: account.RoleWorker}
	b := account.Actor{UserID: dbtest.User(t, pool, "worker"), Role: account.RoleWorker}
	svc := dbtest.Service(t, pool, "12.50")

	sr, err := repo.Create(ctx, cust, NewRequest{CustomerID: cust.UserID, ServiceID: svc})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sr.Status != StatusPending || sr.WorkerID != "" {
		t.Fatalf("unexpected new request %+v", sr)
	}

	lc := &Lifecycle{Store: repo}
	snapshot := *sr
	if _, err := lc.ApplySnapshot(ctx, a, snapshot, StatusAccepted, "on my way"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := lc.ApplySnapshot(ctx, b, snapshot, StatusAccepted, ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale accept: expected ErrConflict, got %v", err)
	}

	cur, err := repo.Get(ctx, sr.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cur.WorkerID != a.UserID || cur.Status != StatusAccepted || cur.WorkerNotes != "on my way" {
		t.Fatalf("unexpected row after accept %+v", cur)
	}

	// Same status, wrong worker: the worker column is part of the compare.
	forged := *cur
	forged.WorkerID = b.UserID
	next := *cur
	next.Status = StatusInProgress
	if _, err := repo.CompareAndSwap(ctx, b, forged, next, ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("worker mismatch: expected ErrConflict, got %v", err)
	}

	if _, err := lc.Apply(ctx, a, sr.ID, StatusInProgress, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	done, err := lc.Apply(ctx, a, sr.ID, StatusCompleted, "")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.CompletedTime == nil {
		t.Fatalf("completed_time not written")
	}

	evs, err := events.ListByRequest(ctx, pool, sr.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(evs) != 4 {
		t.Fatalf("expected created + 3 transitions, got %d", len(evs))
	}
}

func TestRepository_ManagerRejectNoteIsInTimeline(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRepository(pool)

	cust := account.Actor{UserID: dbtest.User(t, pool, "customer"), Role: account.RoleCustomer}
	mgr := account.Actor{UserID: dbtest.User(t, pool, "manager"), Role: account.RoleManager}
	sr, err := repo.Create(ctx, cust, NewRequest{CustomerID: cust.UserID, ServiceID: dbtest.Service(t, pool, "5.00")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	lc := &Lifecycle{Store: repo}
	if _, err := lc.Apply(ctx, mgr, sr.ID, StatusRejected, "duplicate request"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	evs, err := events.ListByRequest(ctx, pool, sr.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	last := evs[len(evs)-1]
	var data map[string]any
	if err := json.Unmarshal(last.Data, &data); err != nil {
		t.Fatalf("decode event data: %v", err)
	}
	if data["note"] != "duplicate request" || data["to"] != "rejected" {
		t.Fatalf("unexpected event data %v", data)
	}
}

func TestRepository_LongNotesDoNotBreakChangeFeed(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRepository(pool)

	cust := account.Actor{UserID: dbtest.User(t, pool, "customer"), Role: account.RoleCustomer}
	w := account.Actor{UserID: dbtest.User(t, pool, "worker"), Role: account.RoleWorker}

	// 2000 runes each, 6 KB and 8 KB in UTF-8: together far past the NOTIFY payload limit.
	sr, err := repo.Create(ctx, cust, NewRequest{
		CustomerID:    cust.UserID,
		ServiceID:     dbtest.Service(t, pool, "3.00"),
		CustomerNotes: strings.Repeat("洗", 2000),
	})
	if err != nil {
		t.Fatalf("create with long notes: %v", err)
	}

	lc := &Lifecycle{Store: repo}
	if _, err := lc.Apply(ctx, w, sr.ID, StatusAccepted, strings.Repeat("🧺", 2000)); err != nil {
		t.Fatalf("accept with long note: %v", err)
	}
}
