package request

import (
	"encoding/json"
	"time"
)

const (
	TopicTransitioned = "hostel.request.transitioned"
	EventTransitioned = "RequestTransitioned"
)

// Envelope is the wire format for every message on the request topics.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type TransitionedPayload struct {
	RequestID  string `json:"request_id"`
	CustomerID string `json:"customer_id"`
	ServiceID  string `json:"service_id"`
	WorkerID   string `json:"worker_id,omitempty"`
	From       Status `json:"from"`
	To         Status `json:"to"`
	Actor      string `json:"actor"`
	Note       string `json:"note,omitempty"`
}

// PartitionKey keeps every event for one request on the same partition.
func PartitionKey(requestID string) []byte {
	return []byte(requestID)
}
