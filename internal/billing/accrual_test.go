package billing

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-redis/redismock/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"hostel/internal/kafka"
	"hostel/internal/redisx"
	"hostel/internal/request"
)

func transitionMessage(t *testing.T, to request.Status) kafkago.Message {
	t.Helper()
	env := request.Envelope{
		EventID:   "ev-1",
		EventType: request.EventTransitioned,
		Payload: kafka.MustMarshal(request.TransitionedPayload{
			RequestID:  "req-1",
			CustomerID: "cust-1",
			From:       request.StatusInProgress,
			To:         to,
		}),
	}
	return kafkago.Message{
		Value:   kafka.MustMarshal(env),
		Headers: []kafkago.Header{{Key: "x-event-type", Value: []byte(request.EventTransitioned)}},
	}
}

func TestAccrual_IgnoresNonCompletion(t *testing.T) {
	a := &Accrual{}
	require.NoError(t, a.HandleTransition(context.Background(), transitionMessage(t, request.StatusAccepted)))
}

func TestAccrual_SkipsUndecodable(t *testing.T) {
	a := &Accrual{}
	require.NoError(t, a.HandleTransition(context.Background(), kafkago.Message{Value: []byte("{")}))
}

func TestAccrual_SkipsOtherEventTypes(t *testing.T) {
	a := &Accrual{}
	m := transitionMessage(t, request.StatusCompleted)
	m.Headers = []kafkago.Header{{Key: "x-event-type", Value: []byte("SomethingElse")}}
	require.NoError(t, a.HandleTransition(context.Background(), m))
}

func TestAccrual_SkipsAlreadyBilled(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectExists(fmt.Sprintf(redisx.KeyDedup, dedupConsumer, "req-1")).SetVal(1)

	a := &Accrual{Rdb: rdb}
	require.NoError(t, a.HandleTransition(context.Background(), transitionMessage(t, request.StatusCompleted)))
	require.NoError(t, mock.ExpectationsWereMet())
}
