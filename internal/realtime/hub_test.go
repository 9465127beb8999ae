package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func change(table string, record map[string]any) Change {
	b, _ := json.Marshal(record)
	return Change{Table: table, Op: "UPDATE", Record: b}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("service_requests", "customer_id=eq.u-1")
	require.NoError(t, err)
	assert.Equal(t, Filter{Table: "service_requests", Column: "customer_id", Value: "u-1"}, f)

	f, err = ParseFilter("bills", "")
	require.NoError(t, err)
	assert.Equal(t, "bills", f.String())

	for _, bad := range []string{"customer_id", "=eq.x", "customer_id=neq.x"} {
		_, err := ParseFilter("service_requests", bad)
		assert.Error(t, err, bad)
	}
	_, err = ParseFilter("", "")
	assert.Error(t, err)
}

func TestFilterMatch(t *testing.T) {
	f := Filter{Table: "service_requests", Column: "customer_id", Value: "u-1"}
	assert.True(t, f.Match(change("service_requests", map[string]any{"customer_id": "u-1"})))
	assert.False(t, f.Match(change("service_requests", map[string]any{"customer_id": "u-2"})))
	assert.False(t, f.Match(change("bills", map[string]any{"customer_id": "u-1"})))
	assert.False(t, f.Match(change("service_requests", map[string]any{"customer_id": nil})))
}

func TestHub_DeliversOnlyMatching(t *testing.T) {
	h := NewHub()
	mine, err := h.Subscribe(Filter{Table: "service_requests", Column: "customer_id", Value: "u-1"})
	require.NoError(t, err)
	defer mine.Close()

	h.Publish(change("service_requests", map[string]any{"customer_id": "u-2"}))
	h.Publish(change("service_requests", map[string]any{"customer_id": "u-1", "status": "accepted"}))

	select {
	case c := <-mine.C():
		assert.Equal(t, "accepted", c.Field("status"))
	case <-time.After(time.Second):
		t.Fatal("expected a change")
	}
	assert.Len(t, mine.C(), 0)
}

func TestSubscription_CloseIsIdempotentAndReleases(t *testing.T) {
	h := NewHub()
	sub, err := h.Subscribe(Filter{Table: "rooms"})
	require.NoError(t, err)
	require.Equal(t, 1, h.Len())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, h.Len())

	_, ok := <-sub.C()
	assert.False(t, ok, "channel must be closed")

	// Publishing after close must not panic.
	h.Publish(change("rooms", map[string]any{"id": "r"}))
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	sub, err := h.Subscribe(Filter{Table: "rooms"})
	require.NoError(t, err)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriptionBuffer*3; i++ {
			h.Publish(change("rooms", map[string]any{"id": "r"}))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, sub.C(), subscriptionBuffer)
}

func TestHub_WatchReleasesOnCancel(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan Change, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Watch(ctx, Filter{Table: "bills"}, func(c Change) error {
			got <- c
			return nil
		})
	}()

	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 5*time.Millisecond)
	h.Publish(change("bills", map[string]any{"id": "b1"}))
	c := <-got
	assert.Equal(t, "b1", c.Field("id"))

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, 0, h.Len())
}

func TestHub_WatchStopsOnHandlerError(t *testing.T) {
	h := NewHub()
	stop := errors.New("stop")
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Watch(context.Background(), Filter{Table: "bills"}, func(Change) error { return stop })
	}()
	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 5*time.Millisecond)
	h.Publish(change("bills", nil))
	assert.ErrorIs(t, <-errCh, stop)
	assert.Equal(t, 0, h.Len())
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	h := NewHub()
	sub, err := h.Subscribe(Filter{Table: "rooms"})
	require.NoError(t, err)

	h.Close()
	_, ok := <-sub.C()
	assert.False(t, ok)

	_, err = h.Subscribe(Filter{Table: "rooms"})
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestDecodeNotification(t *testing.T) {
	c, err := decodeNotification(`{"table":"service_requests","op":"UPDATE","record":{"id":"r1","status":"completed"}}`)
	require.NoError(t, err)
	assert.Equal(t, "service_requests", c.Table)
	assert.Equal(t, "completed", c.Field("status"))
	assert.False(t, c.HasOld())

	c, err = decodeNotification(`{"table":"service_requests","op":"UPDATE","record":{"id":"r1","status":"accepted"},"old_record":{"id":"r1","status":"pending"}}`)
	require.NoError(t, err)
	assert.True(t, c.HasOld())

	c, err = decodeNotification(`{"table":"service_requests","op":"INSERT","record":{"id":"r1"},"old_record":null}`)
	require.NoError(t, err)
	assert.False(t, c.HasOld())

	_, err = decodeNotification(`{"op":"UPDATE"}`)
	assert.Error(t, err)
}
