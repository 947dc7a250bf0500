package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
	"github.com/xeonarno/Alyra-blockquest/internal/repository/journal"
	"github.com/xeonarno/Alyra-blockquest/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// EventJournal is the read side of the event journal
type EventJournal interface {
	List(ctx context.Context, q journal.Query) ([]model.Event, error)
}

// EventsHandler streams committed events to observers
type EventsHandler struct {
	eventHub *service.EventHub
	journal  EventJournal
	upgrader websocket.Upgrader
}

// EventsHandlerConfig holds the dependencies of the events handler
type EventsHandlerConfig struct {
	EventHub       *service.EventHub
	Journal        EventJournal // nil when journaling is disabled
	AllowedOrigins []string
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(cfg EventsHandlerConfig) *EventsHandler {
	return &EventsHandler{
		eventHub: cfg.EventHub,
		journal:  cfg.Journal,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// topicOf reads ?topic=, empty meaning every event
func topicOf(r *http.Request) string {
	return r.URL.Query().Get("topic")
}

// Stream handles GET /v1/events/stream - server-sent events, optionally
// narrowed with ?topic=session:1
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, model.NewInternalError("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	topic := topicOf(r)
	subscriberID := uuid.New().String()
	sub := h.eventHub.Subscribe(topic, subscriberID)
	defer h.eventHub.Unsubscribe(topic, subscriberID)

	fmt.Fprintf(w, "event: connected\ndata: {\"subscriber_id\":%q,\"topic\":%q}\n\n", subscriberID, topic)
	flusher.Flush()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			fmt.Fprint(w, event.Format())
			flusher.Flush()
		case <-sub.Done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// WebSocket handles GET /v1/events/ws - the same feed as Stream, one JSON
// event per text frame
func (h *EventsHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the error response
		return
	}
	defer func() { _ = conn.Close() }()

	topic := topicOf(r)
	subscriberID := uuid.New().String()
	sub := h.eventHub.Subscribe(topic, subscriberID)
	defer h.eventHub.Unsubscribe(topic, subscriberID)

	// Reader: observers never send data, but reading is what processes
	// pongs and notices the peer going away.
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				slog.Debug("websocket write failed", slog.String("subscriber", subscriberID), slog.String("error", err.Error()))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-sub.Done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case <-gone:
			return
		}
	}
}

// List handles GET /v1/events - journaled events in sequence order.
// Query: after (sequence cursor), topic, actor, limit.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		WriteError(w, model.NewNotFoundError("", "event journal is disabled"))
		return
	}

	q := journal.Query{Topic: r.URL.Query().Get("topic")}
	if v := r.URL.Query().Get("after"); v != "" {
		after, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			WriteError(w, model.NewBadRequestError("after must be a sequence number"))
			return
		}
		q.AfterSequence = after
	}
	if v := r.URL.Query().Get("actor"); v != "" {
		actor, err := model.ParseAddress(v)
		if err != nil {
			WriteError(w, model.NewBadRequestError("actor must be an address"))
			return
		}
		q.Actor = actor
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			WriteError(w, model.NewBadRequestError("limit must be an integer"))
			return
		}
		q.Limit = limit
	}

	events, err := h.journal.List(r.Context(), q)
	if err != nil {
		slog.Error("list journal", slog.String("error", err.Error()))
		WriteError(w, model.NewInternalError(""))
		return
	}

	page := &PaginationInfo{HasMore: q.Limit > 0 && len(events) == q.Limit}
	if len(events) > 0 {
		page.Cursor = strconv.FormatUint(events[len(events)-1].Sequence, 10)
	}
	WriteCollection(w, http.StatusOK, events, page, nil)
}
