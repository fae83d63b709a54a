package service

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Game events
	EventGameCompleted EventType = "game_completed"

	// Session events
	EventSessionCompleted EventType = "session_completed"
	EventSessionAborted   EventType = "session_aborted"
)

// Event is a fire-and-forget notification emitted after a terminal
// transition
type Event struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"session_id"`
	GameID     string    `json:"game_id,omitempty"`
	Status     string    `json:"status"`
	Score      float64   `json:"composite_score,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier receives events from the engine. Publish must never block.
type Notifier interface {
	Publish(event *Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(*Event) {}

// Subscriber receives events on a buffered channel
type Subscriber struct {
	ID     string
	UserID string
	Events chan *Event
	Done   chan struct{}
}

// EventHub fans events out to subscribers without blocking the publisher.
// Subscribers whose buffer is full miss the event.
type EventHub struct {
	mu              sync.RWMutex
	subscribers     map[string]*Subscriber            // subscriberID -> subscriber (all events)
	userSubscribers map[string]map[string]*Subscriber // userID -> subscriberID -> subscriber
	bufferSize      int
	dropped         atomic.Int64
}

// NewEventHub creates a new event hub
func NewEventHub(bufferSize int) *EventHub {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventHub{
		subscribers:     make(map[string]*Subscriber),
		userSubscribers: make(map[string]map[string]*Subscriber),
		bufferSize:      bufferSize,
	}
}

// Subscribe adds a subscriber that receives every event
func (h *EventHub) Subscribe(subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := h.newSubscriber(subscriberID, "")
	h.subscribers[subscriberID] = sub
	return sub
}

// Unsubscribe removes a subscriber added with Subscribe
func (h *EventHub) Unsubscribe(subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subscribers[subscriberID]; ok {
		closeSubscriber(sub)
		delete(h.subscribers, subscriberID)
	}
}

// SubscribeUser adds a subscriber that only receives events for userID
func (h *EventHub) SubscribeUser(userID, subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := h.newSubscriber(subscriberID, userID)
	if h.userSubscribers[userID] == nil {
		h.userSubscribers[userID] = make(map[string]*Subscriber)
	}
	h.userSubscribers[userID][subscriberID] = sub
	return sub
}

// UnsubscribeUser removes a user subscriber
func (h *EventHub) UnsubscribeUser(userID, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userSubs, ok := h.userSubscribers[userID]
	if !ok {
		return
	}
	if sub, ok := userSubs[subscriberID]; ok {
		closeSubscriber(sub)
		delete(userSubs, subscriberID)
	}
	if len(userSubs) == 0 {
		delete(h.userSubscribers, userID)
	}
}

// Publish delivers event to every matching subscriber without blocking
func (h *EventHub) Publish(event *Event) {
	if event == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		h.offer(sub, event)
	}
	for _, sub := range h.userSubscribers[event.UserID] {
		h.offer(sub, event)
	}
}

// Dropped returns how many deliveries were skipped because a buffer was full
func (h *EventHub) Dropped() int64 {
	return h.dropped.Load()
}

// Close removes every subscriber
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subscribers {
		closeSubscriber(sub)
		delete(h.subscribers, id)
	}
	for userID, subs := range h.userSubscribers {
		for _, sub := range subs {
			closeSubscriber(sub)
		}
		delete(h.userSubscribers, userID)
	}
}

func (h *EventHub) newSubscriber(subscriberID, userID string) *Subscriber {
	return &Subscriber{
		ID:     subscriberID,
		UserID: userID,
		Events: make(chan *Event, h.bufferSize),
		Done:   make(chan struct{}),
	}
}

func (h *EventHub) offer(sub *Subscriber, event *Event) {
	select {
	case sub.Events <- event:
	default:
		h.dropped.Add(1)
	}
}

func closeSubscriber(sub *Subscriber) {
	close(sub.Done)
	close(sub.Events)
}
