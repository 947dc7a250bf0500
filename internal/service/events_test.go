package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

func receive(t *testing.T, sub *Subscriber) *model.Event {
	t.Helper()
	select {
	case e := <-sub.Events:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventHub_RoutesByTopic(t *testing.T) {
	hub := newEventHub(time.Hour)
	defer hub.Close()

	team := hub.Subscribe(TeamTopic(1), "a")
	all := hub.Subscribe("", "b")
	other := hub.Subscribe(TeamTopic(2), "c")

	hub.Publish(context.Background(), []model.Event{
		{Sequence: 1, Type: model.EventTeamJoined, Topic: TeamTopic(1)},
	})

	assert.Equal(t, uint64(1), receive(t, team).Sequence)
	assert.Equal(t, uint64(1), receive(t, all).Sequence)
	assert.Empty(t, other.Events)
}

func TestEventHub_UnsubscribeClosesChannels(t *testing.T) {
	hub := newEventHub(time.Hour)
	defer hub.Close()

	sub := hub.Subscribe(SessionTopic(3), "a")
	require.Equal(t, 1, hub.SubscriberCount(SessionTopic(3)))

	hub.Unsubscribe(SessionTopic(3), "a")
	assert.Zero(t, hub.SubscriberCount(SessionTopic(3)))

	_, open := <-sub.Events
	assert.False(t, open)
}

func TestEventHub_Heartbeat(t *testing.T) {
	hub := newEventHub(10 * time.Millisecond)
	defer hub.Close()

	sub := hub.Subscribe("", "a")
	assert.Equal(t, model.EventHeartbeat, receive(t, sub).Type)
}

func TestEventHub_DropsWhenSubscriberIsSlow(t *testing.T) {
	hub := newEventHub(time.Hour)
	defer hub.Close()

	sub := hub.Subscribe("", "a")
	events := make([]model.Event, cap(sub.Events)+5)
	hub.Publish(context.Background(), events)

	assert.Len(t, sub.Events, cap(sub.Events))
}

func TestEventHub_CloseIsIdempotent(t *testing.T) {
	hub := newEventHub(time.Hour)
	hub.Subscribe("", "a")
	hub.Close()
	assert.NotPanics(t, hub.Close)
}
