package stream

import (
	"context"
	"log"
	"sync"
)

// subscriberBuffer bounds how far behind one dashboard session may fall
// before it gets evicted instead of stalling the writer.
const subscriberBuffer = 64

// Subscriber is one connected dashboard session. Both the SSE and the
// WebSocket handlers read marshaled frames from Messages; the hub owns the
// channel and closes it on eviction or shutdown.
type Subscriber struct {
	send chan []byte
}

func (s *Subscriber) Messages() <-chan []byte {
	return s.send
}

// Hub maintains the set of live subscribers and fans newly ingested events
// out to all of them. Delivery is at-most-once, best effort: a subscriber
// whose buffer is full is dropped, never waited on.
type Hub struct {
	subscribers map[*Subscriber]bool
	register    chan *Subscriber
	unregister  chan *Subscriber
	broadcast   chan []byte
	done        chan struct{}
	mu          sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]bool),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan []byte, 256),
		done:        make(chan struct{}),
	}
}

// Run owns the subscriber registry until the context is canceled, at which
// point every subscriber channel is closed.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			h.mu.Unlock()
			log.Println("Stream subscriber connected, total:", h.SubscriberCount())

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
			}
			h.mu.Unlock()
			log.Println("Stream subscriber disconnected, total:", h.SubscriberCount())

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

// Subscribe registers a new session and returns its handle. The caller must
// call Unsubscribe when the connection closes. After shutdown the returned
// subscriber's channel is already closed, so stream handlers exit right away.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{send: make(chan []byte, subscriberBuffer)}
	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.send)
	}
	return sub
}

// Unsubscribe never blocks once the hub has stopped; shutdown already closed
// every subscriber channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Broadcast queues a frame for every live subscriber. It never blocks the
// caller: if the hub's queue is full the frame is dropped, since a missed
// real-time frame is recoverable via the recent-events read path.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		log.Println("Broadcast queue full, dropping frame")
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) fanOut(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		select {
		case sub.send <- message:
		default:
			// Buffer full: this session is stalled or dead. Evict it rather
			// than block the ingestion path.
			delete(h.subscribers, sub)
			close(sub.send)
			log.Println("Evicted slow stream subscriber")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		delete(h.subscribers, sub)
		close(sub.send)
	}
}
