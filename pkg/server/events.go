package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/docsave/pkg/pubsub"
)

// eventBuffer is the number of events queued per client. Events published
// while the queue is full are dropped for that client.
const eventBuffer = 64

// eventMessage is the JSON frame sent for every bus event.
type eventMessage struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

// eventStream is one connected /v1/events client.
type eventStream struct {
	conn *websocket.Conn
	send chan eventMessage
	quit chan struct{}
	once sync.Once
}

func newEventStream() *eventStream {
	return &eventStream{
		send: make(chan eventMessage, eventBuffer),
		quit: make(chan struct{}),
	}
}

func (es *eventStream) close() {
	es.once.Do(func() { close(es.quit) })
}

// publish queues ev without blocking the publisher.
func (es *eventStream) publish(ev pubsub.Event) error {
	select {
	case es.send <- eventMessage{Topic: string(ev.Topic), Message: ev.Message}:
	default:
	}
	return nil
}

// readLoop discards client frames and closes the stream when the client
// goes away. Reading is also what processes ping/pong/close frames.
func (es *eventStream) readLoop() {
	defer es.close()
	for {
		if _, _, err := es.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only writer on conn.
func (es *eventStream) writeLoop(writeWait, pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer es.conn.Close()

	for {
		select {
		case msg := <-es.send:
			es.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := es.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			es.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := es.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-es.quit:
			es.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}

// streamSet tracks live streams so Shutdown can close hijacked
// connections, which http.Server.Shutdown does not.
type streamSet struct {
	mu      sync.Mutex
	streams map[*eventStream]struct{}
	closed  bool
}

func newStreamSet() *streamSet {
	return &streamSet{streams: make(map[*eventStream]struct{})}
}

func (ss *streamSet) add(es *eventStream) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return false
	}
	ss.streams[es] = struct{}{}
	return true
}

func (ss *streamSet) remove(es *eventStream) {
	ss.mu.Lock()
	delete(ss.streams, es)
	ss.mu.Unlock()
}

func (ss *streamSet) closeAll() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.closed = true
	for es := range ss.streams {
		es.close()
	}
}

// handleEvents upgrades to a WebSocket and streams every bus event as
// JSON until the client leaves or the server shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	es := newEventStream()

	// Subscribe before the handshake completes so a client that saves
	// right after connecting sees every event.
	off := s.hub.SubscribeAll(es.publish)
	defer off()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.logger.Debug("event stream upgrade failed", "error", err)
		return
	}
	es.conn = conn

	if !s.streams.add(es) {
		conn.Close()
		return
	}
	defer s.streams.remove(es)

	if s.metrics != nil {
		s.metrics.StreamClientConnected()
		defer s.metrics.StreamClientDisconnected()
	}

	s.logger.Debug("event stream connected", "remote", r.RemoteAddr)
	go es.readLoop()
	es.writeLoop(s.config.WriteWait, s.config.PingInterval)
}
