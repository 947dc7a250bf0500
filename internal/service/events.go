package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/xeonarno/Alyra-blockquest/internal/model"
)

// HeartbeatInterval is how often idle streams receive a heartbeat event
const HeartbeatInterval = 30 * time.Second

// Subscriber represents a connected stream client. An empty Topic receives every event.
type Subscriber struct {
	ID     string
	Topic  string
	Events chan *model.Event
	Done   chan struct{}
}

// EventHub fans committed ledger events out to stream subscribers
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*Subscriber // topic -> subscriberID -> subscriber
	heartbeat   *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

// NewEventHub creates a new event hub
func NewEventHub() *EventHub {
	return newEventHub(HeartbeatInterval)
}

func newEventHub(interval time.Duration) *EventHub {
	hub := &EventHub{
		subscribers: make(map[string]map[string]*Subscriber),
		heartbeat:   time.NewTicker(interval),
		done:        make(chan struct{}),
	}
	go hub.sendHeartbeats()
	return hub
}

// Subscribe adds a new subscriber for a topic
func (h *EventHub) Subscribe(topic, subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{
		ID:     subscriberID,
		Topic:  topic,
		Events: make(chan *model.Event, 100),
		Done:   make(chan struct{}),
	}

	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[string]*Subscriber)
	}
	h.subscribers[topic][subscriberID] = sub

	return sub
}

// Unsubscribe removes a subscriber
func (h *EventHub) Unsubscribe(topic, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topicSubs, ok := h.subscribers[topic]; ok {
		if sub, ok := topicSubs[subscriberID]; ok {
			close(sub.Done)
			close(sub.Events)
			delete(topicSubs, subscriberID)
		}
		if len(topicSubs) == 0 {
			delete(h.subscribers, topic)
		}
	}
}

// Publish delivers committed events to the subscribers of their topic and to
// wildcard subscribers. Slow subscribers drop events rather than block the ledger.
func (h *EventHub) Publish(_ context.Context, events []model.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := range events {
		event := &events[i]
		h.deliver(h.subscribers[event.Topic], event)
		if event.Topic != "" {
			h.deliver(h.subscribers[""], event)
		}
	}
}

func (h *EventHub) deliver(subs map[string]*Subscriber, event *model.Event) {
	for _, sub := range subs {
		select {
		case sub.Events <- event:
		default:
		}
	}
}

func (h *EventHub) sendHeartbeats() {
	for {
		select {
		case <-h.heartbeat.C:
			data, _ := json.Marshal(map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			event := &model.Event{Type: model.EventHeartbeat, Data: data, OccurredAt: time.Now().UTC()}
			h.mu.RLock()
			for _, topicSubs := range h.subscribers {
				h.deliver(topicSubs, event)
			}
			h.mu.RUnlock()
		case <-h.done:
			return
		}
	}
}

// Close stops the event hub and disconnects every subscriber
func (h *EventHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.heartbeat.Stop()

		h.mu.Lock()
		defer h.mu.Unlock()

		for topic, topicSubs := range h.subscribers {
			for _, sub := range topicSubs {
				close(sub.Done)
				close(sub.Events)
			}
			delete(h.subscribers, topic)
		}
	})
}

// SubscriberCount returns the number of subscribers for a topic
func (h *EventHub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[topic])
}

// TeamTopic is the stream topic of a team
func TeamTopic(id uint64) string {
	return "team:" + strconv.FormatUint(id, 10)
}

// SessionTopic is the stream topic of a session
func SessionTopic(id uint64) string {
	return "session:" + strconv.FormatUint(id, 10)
}

// PlayerTopic is the stream topic of a player
func PlayerTopic(addr model.Address) string {
	return "player:" + addr.String()
}
