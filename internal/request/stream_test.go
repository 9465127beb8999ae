package request

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel/internal/api"
	"hostel/internal/realtime"
)

func rowChange(record map[string]any) realtime.Change {
	b, _ := json.Marshal(record)
	return realtime.Change{Table: streamTable, Op: "UPDATE", Record: b}
}

func TestStreamFilter(t *testing.T) {
	assert.Equal(t, "customer_id", StreamFilter(customer).Column)
	assert.Equal(t, "", StreamFilter(workerA).Column)
	assert.Equal(t, "", StreamFilter(manager).Column)
}

func TestVisibleChange_WorkerScope(t *testing.T) {
	pendingRow := rowChange(map[string]any{"id": "r1", "customer_id": "cust", "worker_id": nil, "status": "pending"})
	heldByA := rowChange(map[string]any{"id": "r2", "customer_id": "cust", "worker_id": workerA.UserID, "status": "accepted"})

	_, ok := VisibleChange(pendingRow, workerB)
	assert.True(t, ok, "pending queue is visible to every worker")

	ev, ok := VisibleChange(heldByA, workerA)
	require.True(t, ok)
	assert.Equal(t, StatusAccepted, ev.Status)
	assert.Equal(t, workerA.UserID, ev.WorkerID)

	_, ok = VisibleChange(heldByA, workerB)
	assert.False(t, ok)

	_, ok = VisibleChange(heldByA, manager)
	assert.True(t, ok)
}

func TestVisibleChange_TakenFromQueue(t *testing.T) {
	before, _ := json.Marshal(map[string]any{"id": "r1", "customer_id": "cust", "worker_id": nil, "status": "pending"})
	after, _ := json.Marshal(map[string]any{"id": "r1", "customer_id": "cust", "worker_id": workerB.UserID, "status": "accepted"})
	c := realtime.Change{Table: streamTable, Op: "UPDATE", Record: after, OldRecord: before}

	ev, ok := VisibleChange(c, workerA)
	require.True(t, ok, "worker A must learn the request left the queue")
	assert.True(t, ev.Left)
	assert.Equal(t, StatusAccepted, ev.Status)
	assert.Empty(t, ev.WorkerID)

	ev, ok = VisibleChange(c, workerB)
	require.True(t, ok)
	assert.False(t, ev.Left)
	assert.Equal(t, workerB.UserID, ev.WorkerID)

	// Changes between two out-of-scope states stay hidden.
	started, _ := json.Marshal(map[string]any{"id": "r1", "customer_id": "cust", "worker_id": workerB.UserID, "status": "in_progress"})
	_, ok = VisibleChange(realtime.Change{Table: streamTable, Op: "UPDATE", Record: started, OldRecord: after}, workerA)
	assert.False(t, ok)

	// Inserts carry no old row.
	_, ok = VisibleChange(realtime.Change{Table: streamTable, Op: "INSERT", Record: after, OldRecord: json.RawMessage("null")}, workerA)
	assert.False(t, ok)
}

func TestStreamHandler_DeliversAndUnsubscribes(t *testing.T) {
	hub := realtime.NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		StreamHandler{Hub: hub}.ServeHTTP(w, r.WithContext(api.WithActor(r.Context(), customer)))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(rowChange(map[string]any{"id": "other", "customer_id": "someone-else", "status": "pending"}))
	hub.Publish(rowChange(map[string]any{"id": "mine", "customer_id": customer.UserID, "status": "pending"}))

	sc := bufio.NewScanner(resp.Body)
	var data string
	for sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	var ev StreamEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, "mine", ev.ID)

	cancel()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
