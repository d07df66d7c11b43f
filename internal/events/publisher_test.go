package events

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scystream/control-plane/internal/logging"
	"github.com/scystream/control-plane/internal/ports"
)

type sampleEvent struct {
	eventType string
	payload   interface{}
}

func (e sampleEvent) EventType() string   { return e.eventType }
func (e sampleEvent) Payload() interface{} { return e.payload }

func TestLoggingPublisherLogsEvent(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger, err := logging.New(logging.Options{Writer: buf, Level: "info", JSON: true, Component: "publisher"})
	require.NoError(t, err)

	publisher := NewLoggingPublisher(logger)
	err = publisher.Publish(context.Background(), sampleEvent{
		eventType: ports.EventBlockCreated,
		payload:   map[string]interface{}{"block_id": "b-1"},
	})
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "domain event", entry["msg"])
	require.Equal(t, ports.EventBlockCreated, entry["event_type"])
	require.Equal(t, "b-1", entry["block_id"])
}

func TestLoggingPublisherInvokesSubscribers(t *testing.T) {
	t.Parallel()

	publisher := NewLoggingPublisher(nil)

	var received ports.DomainEvent
	sub, err := publisher.Subscribe(ports.EventEdgeCreated, func(_ context.Context, e ports.DomainEvent) error {
		received = e
		return nil
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	event := sampleEvent{eventType: ports.EventEdgeCreated, payload: "edge-1"}
	require.NoError(t, publisher.Publish(context.Background(), event))
	require.Equal(t, event, received)

	sub.Unsubscribe()
	received = nil
	require.NoError(t, publisher.Publish(context.Background(), event))
	require.Nil(t, received)
}
