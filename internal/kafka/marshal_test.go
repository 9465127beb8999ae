package kafka

import (
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestUnwrapPayload(t *testing.T) {
	raw := json.RawMessage(MustMarshal(sample{ID: "r1", Count: 3}))
	got, err := UnwrapPayload[sample](raw)
	require.NoError(t, err)
	require.Equal(t, sample{ID: "r1", Count: 3}, got)

	_, err = UnwrapPayload[sample](json.RawMessage(`{"id":`))
	require.Error(t, err)
}

func TestHeader(t *testing.T) {
	m := kafka.Message{Headers: []kafka.Header{
		{Key: "x-event-type", Value: []byte("a")},
		{Key: "x-event-type", Value: []byte("b")},
	}}
	v, ok := Header(m, "x-event-type")
	require.True(t, ok)
	require.Equal(t, "a", v)

	_, ok = Header(m, "missing")
	require.False(t, ok)
}

func TestProducer_PublishAfterCloseDrops(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "test", 1)
	p.Close()
	p.Close()
	p.Publish([]byte("k"), []byte("v"))
	require.Len(t, p.inbox, 0)
}
