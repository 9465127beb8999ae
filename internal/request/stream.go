package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"hostel/internal/account"
	"hostel/internal/api"
	"hostel/internal/realtime"
)

const streamTable = "service_requests"

// StreamFilter narrows the change feed for actor. Workers get the whole table and are filtered per row.
func StreamFilter(actor account.Actor) realtime.Filter {
	if actor.Role == account.RoleCustomer {
		return realtime.Filter{Table: streamTable, Column: "customer_id", Value: actor.UserID}
	}
	return realtime.Filter{Table: streamTable}
}

type changedRow struct {
	ID         string  `json:"id"`
	CustomerID string  `json:"customer_id"`
	WorkerID   *string `json:"worker_id"`
	Status     Status  `json:"status"`
	UpdatedAt  string  `json:"updated_at"`
}

// StreamEvent is what a subscriber receives for one changed request.
// Left is set when the change moved the request out of the subscriber's scope, such as another
// worker taking it from the pending queue; the client should drop it.
type StreamEvent struct {
	Op        string `json:"op"`
	ID        string `json:"id"`
	Status    Status `json:"status"`
	WorkerID  string `json:"workerId,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Left      bool   `json:"left,omitempty"`
}

func decodeRow(raw []byte) (changedRow, ServiceRequest, bool) {
	var row changedRow
	if err := json.Unmarshal(raw, &row); err != nil || row.ID == "" {
		return changedRow{}, ServiceRequest{}, false
	}
	sr := ServiceRequest{ID: row.ID, CustomerID: row.CustomerID, Status: row.Status}
	if row.WorkerID != nil {
		sr.WorkerID = *row.WorkerID
	}
	return row, sr, true
}

// VisibleChange decodes c and reports whether actor may see it. A change is delivered when
// actor could see the row before or after it.
func VisibleChange(c realtime.Change, actor account.Actor) (StreamEvent, bool) {
	row, sr, ok := decodeRow(c.Record)
	if !ok {
		return StreamEvent{}, false
	}
	if Visible(sr, actor) {
		return StreamEvent{Op: c.Op, ID: sr.ID, Status: sr.Status, WorkerID: sr.WorkerID, UpdatedAt: row.UpdatedAt}, true
	}
	if !c.HasOld() {
		return StreamEvent{}, false
	}
	if _, before, ok := decodeRow(c.OldRecord); !ok || before.ID != sr.ID || !Visible(before, actor) {
		return StreamEvent{}, false
	}
	// Only what is needed to drop the row; the new holder is not disclosed.
	return StreamEvent{Op: c.Op, ID: sr.ID, Status: sr.Status, UpdatedAt: row.UpdatedAt, Left: true}, true
}

type StreamHandler struct {
	Hub       *realtime.Hub
	Heartbeat time.Duration
}

// ServeHTTP streams request changes as server-sent events until the client goes away.
func (h StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "streaming unsupported")
		return
	}

	sub, err := h.Hub.Subscribe(StreamFilter(actor))
	if err != nil {
		api.WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "realtime is shutting down")
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	hb := h.Heartbeat
	if hb <= 0 {
		hb = 25 * time.Second
	}
	ticker := time.NewTicker(hb)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case c, ok := <-sub.C():
			if !ok {
				return
			}
			ev, visible := VisibleChange(c, actor)
			if !visible {
				continue
			}
			b, _ := json.Marshal(ev)
			fmt.Fprintf(w, "event: request\ndata: %s\n\n", b)
			flusher.Flush()
		}
	}
}
