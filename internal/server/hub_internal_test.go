package server

import (
	"testing"
	"time"

	"github.com/simonjohansson/thoughtflow/internal/model"
	"github.com/stretchr/testify/require"
)

func TestHubPublishPreservesOrderWhenQueueHasCapacity(t *testing.T) {
	t.Parallel()

	h := &hub{broadcast: make(chan model.Event, 2)}
	first := model.Event{Type: model.EventTypeCardCreated, CardID: "A", Timestamp: time.Now().UTC()}
	second := model.Event{Type: model.EventTypeCardUpdated, CardID: "A", Timestamp: time.Now().UTC()}

	h.Publish(first)
	h.Publish(second)

	require.Equal(t, first.Type, (<-h.broadcast).Type)
	require.Equal(t, second.Type, (<-h.broadcast).Type)
}

func TestHubPublishOverflowQueuesResyncFallback(t *testing.T) {
	t.Parallel()

	h := &hub{broadcast: make(chan model.Event, 2)}
	h.broadcast <- model.Event{Type: model.EventTypeCardCreated, CardID: "A", Timestamp: time.Now().UTC()}
	h.broadcast <- model.Event{Type: model.EventTypeCardUpdated, CardID: "A", Timestamp: time.Now().UTC()}

	h.Publish(model.Event{Type: model.EventTypeCardDeletedSoft, CardID: "A", Timestamp: time.Now().UTC()})

	event := <-h.broadcast
	require.Equal(t, model.EventTypeResyncRequired, event.Type)
	require.Empty(t, event.CardID)
	require.Len(t, h.broadcast, 0)
}

func TestClientFilterAlwaysAcceptsResync(t *testing.T) {
	t.Parallel()

	c := &wsClient{cardID: "A"}
	require.True(t, c.wants(model.Event{Type: model.EventTypeCardUpdated, CardID: "A"}))
	require.False(t, c.wants(model.Event{Type: model.EventTypeCardUpdated, CardID: "B"}))
	require.True(t, c.wants(model.Event{Type: model.EventTypeResyncRequired}))
	require.True(t, (&wsClient{}).wants(model.Event{Type: model.EventTypeCardUpdated, CardID: "B"}))
}

func TestParseTimeParam(t *testing.T) {
	t.Parallel()

	got, err := parseTimeParam("start_time", "")
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = parseTimeParam("start_time", "2024-01-02T03:04:05+02:00")
	require.NoError(t, err)
	require.True(t, time.Date(2024, 1, 2, 1, 4, 5, 0, time.UTC).Equal(*got))

	got, err = parseTimeParam("start_time", "2024-01-02T03:04:05.5")
	require.NoError(t, err)
	require.True(t, time.Date(2024, 1, 2, 3, 4, 5, 500000000, time.UTC).Equal(*got))

	got, err = parseTimeParam("end_time", "2024-01-02")
	require.NoError(t, err)
	require.True(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Equal(*got))

	_, err = parseTimeParam("end_time", "soon")
	require.Error(t, err)
	require.Contains(t, err.Error(), "end_time")
}
