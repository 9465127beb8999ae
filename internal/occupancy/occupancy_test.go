package occupancy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	calls chan time.Time
	err   error
}

func (f *fakeSyncer) SyncOccupancy(_ context.Context, day time.Time) (int64, error) {
	select {
	case f.calls <- day:
	default:
	}
	return 1, f.err
}

func TestSync_PropagatesError(t *testing.T) {
	f := &fakeSyncer{calls: make(chan time.Time, 1), err: errors.New("db down")}
	require.Error(t, Sync(context.Background(), f, time.Now()))
}

func TestSync_PassesDay(t *testing.T) {
	f := &fakeSyncer{calls: make(chan time.Time, 1)}
	day := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, Sync(context.Background(), f, day))
	require.Equal(t, day, <-f.calls)
}

func TestSchedule_RunsImmediately(t *testing.T) {
	f := &fakeSyncer{calls: make(chan time.Time, 1)}
	sched, err := Schedule(f, time.Hour)
	require.NoError(t, err)
	defer func() { require.NoError(t, sched.Shutdown()) }()

	select {
	case <-f.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled sync did not run")
	}
}
