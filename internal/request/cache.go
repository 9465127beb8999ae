package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"hostel/internal/redisx"
)

type CachedStatus struct {
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatusCache is a read-through cache for the status endpoint. Redis failures are logged and treated as misses.
type StatusCache struct {
	rdb *redis.Client
	now func() time.Time
}

func NewStatusCache(rdb *redis.Client) *StatusCache {
	return &StatusCache{rdb: rdb, now: time.Now}
}

func (c *StatusCache) Get(ctx context.Context, requestID string) (*CachedStatus, bool) {
	b, err := c.rdb.Get(ctx, fmt.Sprintf(redisx.KeyRequestStatus, requestID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[request] status cache get %s: %v", requestID, err)
		}
		return nil, false
	}
	var cs CachedStatus
	if err := json.Unmarshal(b, &cs); err != nil {
		return nil, false
	}
	return &cs, true
}

func (c *StatusCache) Put(ctx context.Context, requestID string, st Status) {
	b, _ := json.Marshal(CachedStatus{Status: st, UpdatedAt: c.now().UTC()})
	if err := c.rdb.Set(ctx, fmt.Sprintf(redisx.KeyRequestStatus, requestID), b, redisx.TTLStatusCache).Err(); err != nil {
		log.Printf("[request] status cache put %s: %v", requestID, err)
	}
}

// Idempotency maps a customer's Idempotency-Key to the request it created.
type Idempotency struct {
	rdb *redis.Client
}

func NewIdempotency(rdb *redis.Client) *Idempotency {
	return &Idempotency{rdb: rdb}
}

func (i *Idempotency) Lookup(ctx context.Context, customerID, key string) (string, bool) {
	id, err := i.rdb.Get(ctx, fmt.Sprintf(redisx.KeyIdemRequestCreate, customerID, key)).Result()
	if err != nil {
		return "", false
	}
	return id, true
}

func (i *Idempotency) Remember(ctx context.Context, customerID, key, requestID string) {
	if err := i.rdb.Set(ctx, fmt.Sprintf(redisx.KeyIdemRequestCreate, customerID, key), requestID, redisx.TTLIdempotency).Err(); err != nil {
		log.Printf("[request] idempotency remember %s: %v", requestID, err)
	}
}
