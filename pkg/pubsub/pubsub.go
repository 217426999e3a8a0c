// Package pubsub is the notification bus shared by the sanitizer and the
// emitters.
//
// Three topics are published during a save:
//
//   - warn: a human-readable diagnostic (missing charset, unhandled node)
//   - save: the phase being run ("toString", "toXML5", "toDiffHTML")
//   - beforesave: the sanitized tree, just before string building starts
//
// Handlers run synchronously, in subscription order, on the publishing
// goroutine. The first handler error stops the broadcast and is returned to
// the publisher, which aborts the serialization in progress.
package pubsub

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/net/html"
)

// Topic names a class of event.
type Topic string

const (
	TopicWarn       Topic = "warn"
	TopicSave       Topic = "save"
	TopicBeforeSave Topic = "beforesave"
)

// Save phases carried by TopicSave events.
const (
	PhaseHTML     = "toString"
	PhaseXHTML    = "toXML5"
	PhaseDiffHTML = "toDiffHTML"
)

// Event is a single notification.
type Event struct {
	Topic   Topic
	Message string

	// Tree is set for beforesave events. Handlers may mutate it.
	Tree *html.Node
}

// Handler receives events for a topic.
type Handler func(ev Event) error

// Publisher is the publishing side of the bus.
type Publisher interface {
	Publish(ev Event) error
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) error { return nil }

type subscription struct {
	id int
	fn Handler
}

// Hub is an in-process publish/subscribe bus. The zero value is not
// usable; create hubs with NewHub.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Topic][]subscription
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[Topic][]subscription)}
}

// Subscribe registers fn for topic and returns a function that removes the
// registration again.
func (h *Hub) Subscribe(topic Topic, fn Handler) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[topic] = append(h.subs[topic], subscription{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			list := h.subs[topic]
			for i, s := range list {
				if s.id == id {
					h.subs[topic] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

// SubscribeAll registers fn for every topic.
func (h *Hub) SubscribeAll(fn Handler) (unsubscribe func()) {
	offs := []func(){
		h.Subscribe(TopicWarn, fn),
		h.Subscribe(TopicSave, fn),
		h.Subscribe(TopicBeforeSave, fn),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// Publish delivers ev to the handlers subscribed to ev.Topic.
func (h *Hub) Publish(ev Event) error {
	h.mu.RLock()
	list := make([]subscription, len(h.subs[ev.Topic]))
	copy(list, h.subs[ev.Topic])
	h.mu.RUnlock()

	for _, s := range list {
		if err := s.fn(ev); err != nil {
			return fmt.Errorf("%s listener: %w", ev.Topic, err)
		}
	}
	return nil
}

// Warn publishes a formatted diagnostic on p.
func Warn(p Publisher, format string, args ...any) error {
	return p.Publish(Event{Topic: TopicWarn, Message: fmt.Sprintf(format, args...)})
}

// Save publishes the start of a save phase on p.
func Save(p Publisher, phase string) error {
	return p.Publish(Event{Topic: TopicSave, Message: phase})
}

// BeforeSave publishes the sanitized tree on p.
func BeforeSave(p Publisher, tree *html.Node) error {
	return p.Publish(Event{Topic: TopicBeforeSave, Tree: tree})
}

// OrDiscard returns p, or Discard when p is nil.
func OrDiscard(p Publisher) Publisher {
	if p == nil {
		return Discard
	}
	return p
}

// LogWarnings subscribes logger to the warn topic.
func LogWarnings(h *Hub, logger *slog.Logger) (unsubscribe func()) {
	return h.Subscribe(TopicWarn, func(ev Event) error {
		logger.Warn(ev.Message)
		return nil
	})
}
