// Package stream pushes every record appended to the log to websocket
// subscribers. Subscribers choose which records they receive with glob
// patterns matched against the record text.
package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/eapache/channels"
	"github.com/gobwas/glob"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
	"go.uber.org/atomic"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/utils/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// MatchAll is the pattern of a subscriber that has not chosen any.
	MatchAll = "*"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Catalog maintains the set of active subscribers
type Catalog struct {
	sync.RWMutex
	subs map[*Subscriber]struct{}
}

// Remove a subscriber from the catalog
func (sc *Catalog) Remove(sub *Subscriber) {
	sc.Lock()
	defer sc.Unlock()

	delete(sc.subs, sub)
}

// Len returns the number of subscribers.
func (sc *Catalog) Len() int {
	sc.RLock()
	defer sc.RUnlock()

	return len(sc.subs)
}

// NewCatalog initializes the stream catalog
func NewCatalog() *Catalog {
	return &Catalog{
		subs: map[*Subscriber]struct{}{},
	}
}

// Subscriber includes the connection, and patterns to
// manage a given stream client
type Subscriber struct {
	sync.RWMutex
	c        *websocket.Conn
	done     chan struct{}
	patterns []glob.Glob
}

func newSubscriber(c *websocket.Conn) *Subscriber {
	return &Subscriber{
		c:        c,
		done:     make(chan struct{}),
		patterns: []glob.Glob{glob.MustCompile(MatchAll)},
	}
}

// Subscribed matches the subscriber's patterns with the record text.
func (s *Subscriber) Subscribed(record string) bool {
	s.RLock()
	defer s.RUnlock()
	for _, g := range s.patterns {
		if g.Match(record) {
			return true
		}
	}
	return false
}

// SubscribeMessage is an inbound message for the client
// to choose the records it receives
type SubscribeMessage struct {
	Patterns []string `msgpack:"patterns"`
}

// ErrorMessage is used to report errors when a client
// subscribes with invalid patterns
type ErrorMessage struct {
	Error string `msgpack:"error"`
}

// Payload is used to send one record over the websocket. Seq counts the
// records appended since the hub was created, starting at 1.
type Payload struct {
	Seq    uint64 `msgpack:"seq"`
	Record string `msgpack:"record"`
}

func (s *Subscriber) handleOutbound(buf []byte) error {
	// prevents concurrent write to the websocket connection
	s.Lock()
	defer s.Unlock()
	if err := s.c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.c.WriteMessage(websocket.BinaryMessage, buf)
}

func (s *Subscriber) handleInbound(msg SubscribeMessage) error {
	if len(msg.Patterns) == 0 {
		return nil
	}

	// compile each pattern before replacing the subscriber's patterns
	patterns := make([]glob.Glob, 0, len(msg.Patterns))
	for _, p := range msg.Patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return errors.Wrapf(err, "%s is an invalid pattern", p)
		}
		patterns = append(patterns, g)
	}

	// prevents concurrent read/write of the patterns
	s.Lock()
	defer s.Unlock()
	s.patterns = patterns
	return nil
}

func (s *Subscriber) consume(catalog *Catalog) {
	defer func() {
		catalog.Remove(s)
		close(s.done)
	}()

	_ = s.c.SetReadDeadline(time.Now().Add(pongWait))
	s.c.SetPongHandler(func(string) error {
		return s.c.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, buf, err := s.c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("unexpected websocket closure (%v)", err)
			}
			return
		}

		switch msgType {
		case websocket.TextMessage, websocket.BinaryMessage:
			m := SubscribeMessage{}
			if err = msgpack.Unmarshal(buf, &m); err != nil {
				log.Error("failed to unmarshal inbound stream message (%v)", err)
				continue
			}
			// the accepted message is echoed back as acknowledgement
			if err = s.handleInbound(m); err != nil {
				buf, _ = msgpack.Marshal(ErrorMessage{Error: err.Error()})
			}
			if err = s.handleOutbound(buf); err != nil {
				log.Error("failed to send stream message (%v)", err)
			}
		case websocket.CloseMessage:
			return
		}
	}
}

func (s *Subscriber) produce() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Lock()
			err := s.c.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait))
			s.Unlock()
			if err != nil {
				log.Debug("failed to ping stream subscriber (%v)", err)
			}
		case <-s.done:
			return
		}
	}
}

// Hub receives appended records as a ringbuffer.Observer and broadcasts
// them from its own goroutine, so a slow subscriber never holds up an
// append.
type Hub struct {
	send    *channels.InfiniteChannel
	catalog *Catalog
	seq     atomic.Uint64
	// stopped is only written with the catalog locked.
	stopped atomic.Bool
}

// NewHub builds a hub. Records are only delivered while Run is active.
func NewHub() *Hub {
	return &Hub{
		send:    channels.NewInfiniteChannel(),
		catalog: NewCatalog(),
	}
}

// RecordAppended queues rec for broadcasting. It never blocks.
func (h *Hub) RecordAppended(rec []byte, _ bool, _, _ int) {
	h.send.In() <- Payload{Seq: h.seq.Inc(), Record: string(rec)}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	return h.catalog.Len()
}

// Run broadcasts queued records until ctx is canceled, then disconnects
// every subscriber.
func (h *Hub) Run(ctx context.Context) error {
	out := h.send.Out()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case v := <-out:
			payload, ok := v.(Payload)
			if !ok {
				continue
			}
			h.broadcast(payload)
		}
	}
}

func (h *Hub) broadcast(payload Payload) {
	buf, err := msgpack.Marshal(payload)
	if err != nil {
		log.Error("failed to marshal outbound stream payload (%v)", err)
		return
	}

	h.catalog.RLock()
	defer h.catalog.RUnlock()
	for s := range h.catalog.subs {
		if s.Subscribed(payload.Record) {
			if err := s.handleOutbound(buf); err != nil {
				log.Error("failed to stream outbound (%s)", err)
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.catalog.Lock()
	h.stopped.Store(true)
	subs := make([]*Subscriber, 0, len(h.catalog.subs))
	for s := range h.catalog.subs {
		subs = append(subs, s)
	}
	h.catalog.Unlock()

	for _, s := range subs {
		s.goAway()
	}
}

func (s *Subscriber) goAway() {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	s.Lock()
	defer s.Unlock()
	_ = s.c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = s.c.Close()
}

// register adds s unless the hub has stopped.
func (h *Hub) register(s *Subscriber) bool {
	h.catalog.Lock()
	defer h.catalog.Unlock()
	if h.stopped.Load() {
		return false
	}
	h.catalog.subs[s] = struct{}{}
	return true
}

// ServeHTTP upgrades the connection and registers a subscriber that
// receives every record until it sends a SubscribeMessage.
// Once Run has returned, new connections are refused.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.stopped.Load() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade stream socket (%s)", err)
		return
	}

	s := newSubscriber(ws)
	if !h.register(s) {
		// Run returned during the upgrade
		s.goAway()
		return
	}
	log.Info("new stream listener: %v", ws.RemoteAddr().String())

	// begin streaming
	go s.consume(h.catalog)
	go s.produce()
}
