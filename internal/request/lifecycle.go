package request

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"hostel/internal/account"
	"hostel/internal/kafka"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNotAssignedWorker = errors.New("actor is not assigned to this request")
	ErrConflict          = errors.New("request changed concurrently")
)

// Transition validates moving req to target on behalf of actor and returns the updated copy.
// It never mutates req.
func Transition(req ServiceRequest, actor account.Actor, target Status, now time.Time) (ServiceRequest, error) {
	from := req.Status
	if from.Terminal() {
		return req, fmt.Errorf("%w: %s is final", ErrInvalidTransition, from)
	}

	if !CanTransition(from, target) {
		// A different worker re-accepting someone else's request is an authority problem, not an edge problem.
		if from == StatusAccepted && target == StatusAccepted && actor.UserID != req.WorkerID {
			return req, fmt.Errorf("%w: request is assigned to another worker", ErrNotAssignedWorker)
		}
		return req, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
	}

	next := req
	switch target {
	case StatusAccepted:
		if actor.Role != account.RoleWorker {
			return req, fmt.Errorf("%w: only workers accept requests", ErrNotAssignedWorker)
		}
		if req.WorkerID != "" {
			return req, fmt.Errorf("%w: pending request already has a worker", ErrInvalidTransition)
		}
		next.WorkerID = actor.UserID

	case StatusInProgress:
		if !isAssigned(req, actor) {
			return req, ErrNotAssignedWorker
		}

	case StatusCompleted:
		if !isAssigned(req, actor) {
			return req, ErrNotAssignedWorker
		}
		t := now.UTC()
		next.CompletedTime = &t

	case StatusRejected:
		if !actor.Is(account.RoleWorker, account.RoleManager) {
			return req, fmt.Errorf("%w: only staff reject requests", ErrNotAssignedWorker)
		}
	}

	next.Status = target
	return next, nil
}

func isAssigned(req ServiceRequest, actor account.Actor) bool {
	return actor.Role == account.RoleWorker && req.WorkerID != "" && req.WorkerID == actor.UserID
}

// Store is the persistence the lifecycle needs. CompareAndSwap must only write when the stored
// row still has prev's status and worker, and return ErrConflict otherwise. note belongs in the
// timeline entry of the same write whoever the actor is.
type Store interface {
	Get(ctx context.Context, id string) (*ServiceRequest, error)
	CompareAndSwap(ctx context.Context, actor account.Actor, prev, next ServiceRequest, note string) (*ServiceRequest, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Lifecycle struct {
	Store     Store
	Publisher Publisher
	Cache     *StatusCache
	Producer  string
	Now       func() time.Time
}

// Apply fetches the current row and transitions it.
func (l *Lifecycle) Apply(ctx context.Context, actor account.Actor, id string, target Status, note string) (*ServiceRequest, error) {
	cur, err := l.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.ApplySnapshot(ctx, actor, *cur, target, note)
}

// ApplySnapshot transitions a caller-held snapshot. A stale snapshot loses the compare-and-set
// with ErrConflict; the caller must refetch.
func (l *Lifecycle) ApplySnapshot(ctx context.Context, actor account.Actor, snapshot ServiceRequest, target Status, note string) (*ServiceRequest, error) {
	next, err := Transition(snapshot, actor, target, l.now())
	if err != nil {
		return nil, err
	}
	// worker_notes shows the latest worker note; every note stays in the timeline.
	if note != "" && actor.Role == account.RoleWorker {
		next.WorkerNotes = note
	}

	saved, err := l.Store.CompareAndSwap(ctx, actor, snapshot, next, note)
	if err != nil {
		return nil, err
	}

	if l.Cache != nil {
		l.Cache.Put(ctx, saved.ID, saved.Status)
	}
	l.publish(snapshot.Status, *saved, actor, note)
	return saved, nil
}

func (l *Lifecycle) publish(from Status, saved ServiceRequest, actor account.Actor, note string) {
	if l.Publisher == nil {
		return
	}
	payload := TransitionedPayload{
		RequestID:  saved.ID,
		CustomerID: saved.CustomerID,
		ServiceID:  saved.ServiceID,
		WorkerID:   saved.WorkerID,
		From:       from,
		To:         saved.Status,
		Actor:      actor.String(),
		Note:       note,
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventTransitioned,
		EventVersion:  1,
		OccurredAt:    l.now().UTC(),
		Producer:      l.Producer,
		CorrelationID: saved.ID,
		Payload:       kafka.MustMarshal(payload),
	}
	l.Publisher.Publish(PartitionKey(saved.ID), kafka.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventTransitioned)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	log.Printf("[request] %s %s -> %s by %s", saved.ID, from, saved.Status, actor)
}

func (l *Lifecycle) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}
