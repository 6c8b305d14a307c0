// Package monitor implements the optional HTTP+WebSocket live-state server.
// It broadcasts per-cycle IPU snapshots -- PC, cycle count, LR/CR banks,
// active dtype -- to connected clients; the core cycle engine has no dependency
// on it and runs identically with no Hub attached.
package monitor

import "sync"

// EventType distinguishes the kinds of events a Hub broadcasts.
type EventType string

const (
	// EventCycle carries a per-cycle IPU state snapshot.
	EventCycle EventType = "cycle"
	// EventHalt carries the run's termination reason.
	EventHalt EventType = "halt"
	// EventFault carries a fatal *ipu.Fault that aborted the run.
	EventFault EventType = "fault"
)

// Event is one broadcast message sent to subscribed clients.
type Event struct {
	Type EventType      `json:"type"`
	Data map[string]any `json:"data"`
}

// subscription is one client's event channel, filtered by event type.
type subscription struct {
	eventTypes map[EventType]bool
	channel    chan Event
}

// Hub fans out Events to every connected WebSocket client: a single
// background goroutine owns the subscriber set so Broadcast/Subscribe/
// Unsubscribe never race each other.
type Hub struct {
	mu            sync.RWMutex
	subscriptions map[*subscription]bool
	broadcast     chan Event
	register      chan *subscription
	unregister    chan *subscription
	done          chan struct{}
}

// NewHub creates and starts a Hub's background fan-out loop.
func NewHub() *Hub {
	h := &Hub{
		subscriptions: make(map[*subscription]bool),
		broadcast:     make(chan Event, 256),
		register:      make(chan *subscription),
		unregister:    make(chan *subscription),
		done:          make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subscriptions[sub] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if h.subscriptions[sub] {
				delete(h.subscriptions, sub)
				close(sub.channel)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.RLock()
			for sub := range h.subscriptions {
				if len(sub.eventTypes) > 0 && !sub.eventTypes[event.Type] {
					continue
				}
				select {
				case sub.channel <- event:
				default:
					// slow client; drop rather than block the hub
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for sub := range h.subscriptions {
				close(sub.channel)
			}
			h.subscriptions = make(map[*subscription]bool)
			h.mu.Unlock()
			return
		}
	}
}

// subscribe registers a new subscription, optionally filtered to a set of
// event types (empty = all types).
func (h *Hub) subscribe(eventTypes []EventType) *subscription {
	filter := make(map[EventType]bool, len(eventTypes))
	for _, et := range eventTypes {
		filter[et] = true
	}
	sub := &subscription{eventTypes: filter, channel: make(chan Event, 64)}
	h.register <- sub
	return sub
}

func (h *Hub) unsubscribe(sub *subscription) {
	h.unregister <- sub
}

// Broadcast sends event to every subscription whose filter admits it.
// Non-blocking: if the hub's internal queue is full the event is dropped.
func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
	}
}

// BroadcastCycle is a convenience wrapper for the run loop's per-cycle hook.
func (h *Hub) BroadcastCycle(data map[string]any) {
	h.Broadcast(Event{Type: EventCycle, Data: data})
}

// BroadcastHalt announces a run's termination.
func (h *Hub) BroadcastHalt(reason string, cycles uint64) {
	h.Broadcast(Event{Type: EventHalt, Data: map[string]any{"reason": reason, "cycles": cycles}})
}

// BroadcastFault announces a fatal *ipu.Fault that aborted the run.
func (h *Hub) BroadcastFault(message string, pc uint32) {
	h.Broadcast(Event{Type: EventFault, Data: map[string]any{"error": message, "pc": pc}})
}

// Close shuts down the hub and disconnects every subscriber.
func (h *Hub) Close() {
	close(h.done)
}

// SubscriptionCount reports the number of currently connected clients.
func (h *Hub) SubscriptionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions)
}
