// Package sse implements a Server-Sent Events broker for content change
// notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event types sent to clients.
const (
	TypePostCreated    = "post.created"
	TypePostUpdated    = "post.updated"
	TypePostDeleted    = "post.deleted"
	TypeListingUpdated = "listing.updated"
)

// Event represents an SSE event to broadcast. An empty ID is filled in by
// the broker.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

// PostChange is the payload of post.* events.
type PostChange struct {
	Slug    string `json:"slug"`
	Scrolly bool   `json:"scrolly"`
}

type postEventReq struct {
	kind   string
	change PostChange
}

type subscribeReq struct {
	ch     chan []byte
	lastID string
}

// frame is an encoded event kept for Last-Event-ID replay.
type frame struct {
	id  string
	raw []byte
}

// historySize is how many recent events a reconnecting client can replay.
const historySize = 64

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the client set, the replay history and
// the listing throttle timestamp; public methods talk to it over channels.
type Broker struct {
	listingMin time.Duration
	keepAlive  time.Duration

	subscribeCh   chan subscribeReq
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	postEventCh   chan postEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits listing.updated at most once per
// listingThrottle.
func NewBroker(listingThrottle time.Duration) *Broker {
	if listingThrottle <= 0 {
		listingThrottle = 2 * time.Second
	}

	b := &Broker{
		listingMin:    listingThrottle,
		keepAlive:     30 * time.Second,
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		postEventCh:   make(chan postEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

// encode renders an event in the SSE wire format.
func encode(event Event) (frame, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return frame{}, err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	raw := fmt.Appendf(nil, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, payload)
	return frame{id: event.ID, raw: raw}, nil
}

// remember appends f, dropping the oldest frame once historySize is reached.
func remember(history []frame, f frame) []frame {
	if len(history) == historySize {
		history = append(history[:0], history[1:]...)
	}
	return append(history, f)
}

// since returns the frames after the one with id lastID. An unknown id
// replays nothing: the client is too far behind and should refetch.
func since(history []frame, lastID string) []frame {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].id == lastID {
			return history[i+1:]
		}
	}
	return nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	history := make([]frame, 0, historySize)
	var lastListing time.Time

	broadcast := func(event Event) {
		f, err := encode(event)
		if err != nil {
			return
		}
		history = remember(history, f)
		for ch := range clients {
			select {
			case ch <- f.raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case req := <-b.subscribeCh:
			if req.lastID != "" {
				for _, f := range since(history, req.lastID) {
					select {
					case req.ch <- f.raw:
					default:
					}
				}
			}
			clients[req.ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.postEventCh:
			switch req.kind {
			case "created":
				broadcast(Event{Type: TypePostCreated, Data: req.change})
			case "updated":
				broadcast(Event{Type: TypePostUpdated, Data: req.change})
			case "deleted":
				broadcast(Event{Type: TypePostDeleted, Data: req.change})
			default:
				continue
			}

			now := time.Now()
			if now.Sub(lastListing) >= b.listingMin {
				lastListing = now
				broadcast(Event{Type: TypeListingUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.SubscribeFrom("")
}

// SubscribeFrom adds a new client that first receives the events published
// after lastID, if that event is still in the replay history.
func (b *Broker) SubscribeFrom(lastID string) chan []byte {
	ch := make(chan []byte, historySize)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscribeReq{ch: ch, lastID: lastID}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishPostEvent publishes a post change ("created", "updated" or
// "deleted") and a throttled listing.updated event.
func (b *Broker) PublishPostEvent(kind string, change PostChange) {
	if b.closed.Load() {
		return
	}
	select {
	case b.postEventCh <- postEventReq{kind: kind, change: change}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). Reconnecting
// clients send Last-Event-ID and get the events they missed.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.SubscribeFrom(r.Header.Get("Last-Event-ID"))
	defer b.Unsubscribe(ch)

	ticker := time.NewTicker(b.keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = w.Write([]byte(": keep-alive\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
