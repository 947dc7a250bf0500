package handler

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/service"
)

// waitForSubscriber blocks until the hub has a subscriber on topic
func waitForSubscriber(t *testing.T, hub *service.EventHub, topic string) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.SubscriberCount(topic) > 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEvents_WebSocketReceivesCommittedEvents(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	topic := service.PlayerTopic(aliceAddr)
	url := "ws" + strings.TrimPrefix(api.server.URL, "http") + "/v1/events/ws?topic=" + topic
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForSubscriber(t, api.hub, topic)

	// a failed operation publishes nothing
	resp := api.do(http.MethodPost, "/v1/players", aliceAddr, map[string]string{})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Status)

	resp = api.do(http.MethodPost, "/v1/players", aliceAddr, map[string]string{"first_name": "Frodo"})
	require.Equal(t, http.StatusOK, resp.Status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event model.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, model.EventPlayerRegistered, event.Type)
	assert.Equal(t, aliceAddr, event.Actor)
	assert.Equal(t, topic, event.Topic)
}

func TestEvents_SSEStream(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.server.URL+"/v1/events/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := api.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: connected", lines.Text())
	waitForSubscriber(t, api.hub, "")

	created := api.do(http.MethodPost, "/v1/gms", gmAddr, map[string]string{"first_name": "Gary"})
	require.Equal(t, http.StatusCreated, created.Status)

	for lines.Scan() {
		if lines.Text() == "event: "+string(model.EventGMCreated) {
			require.True(t, lines.Scan())
			assert.True(t, strings.HasPrefix(lines.Text(), "data: "))
			assert.Contains(t, lines.Text(), gmAddr.String())
			return
		}
	}
	t.Fatal("stream closed before gm.created arrived")
}

func TestEvents_ListWithoutJournal(t *testing.T) {
	t.Parallel()
	api := newAPI(t)

	resp := api.do(http.MethodGet, "/v1/events", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}
