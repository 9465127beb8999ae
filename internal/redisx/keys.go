package redisx

import "time"

const (
	// idem:request:create:{customer_id}:{idempotency_key} -> request_id
	KeyIdemRequestCreate = "idem:request:create:%s:%s"

	// request_status:{request_id} -> {"status": "...", "updatedAt": "..."}
	KeyRequestStatus = "request_status:%s"

	// dedup:{consumer}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// overview:{manager_id}
	KeyOverview = "overview:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLOverview    = 30 * time.Second
)
