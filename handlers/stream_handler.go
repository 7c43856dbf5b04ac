package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/melanoai/event-clocking/stream"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamClockEvents is the SSE push channel. Every frame is one `data:` line
// of JSON; the first frame is the connected handshake. Delivery is
// at-most-once with no replay: a client that reconnects only sees events from
// reconnection onward and backfills through the recent-events read.
func StreamClockEvents(hub *stream.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		sub := hub.Subscribe()
		defer hub.Unsubscribe(sub)

		fmt.Fprintf(w, "data: %s\n\n", stream.ConnectedMessage())
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				// Client went away; deregistration happens in the deferred
				// Unsubscribe so the hub frees this slot promptly.
				return
			case message, open := <-sub.Messages():
				if !open {
					// Evicted by the hub (stalled) or hub shutdown
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", message)
				flusher.Flush()
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard sessions connect from the landing pages' origins; CORS
	// policy is handled at the HTTP layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type subscribeRequest struct {
	Type    string                 `json:"type"`
	Filters map[string]interface{} `json:"filters"`
}

// StreamClockEventsWS carries the same frames as the SSE stream over a
// WebSocket. A client may send a subscribe message with filters; the filters
// are acknowledged but not applied server-side.
func StreamClockEventsWS(hub *stream.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("Error upgrading websocket:", err)
			return
		}

		sub := hub.Subscribe()
		acks := make(chan []byte, 4)

		go wsReadPump(conn, hub, sub, acks)
		wsWritePump(conn, sub, acks)
	}
}

// wsReadPump drains client messages, answering subscribe requests and
// keeping the read deadline fresh on pongs. Any read error tears the
// connection down.
func wsReadPump(conn *websocket.Conn, hub *stream.Hub, sub *stream.Subscriber, acks chan<- []byte) {
	defer func() {
		hub.Unsubscribe(sub)
		conn.Close()
	}()

	conn.SetReadLimit(4096)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req subscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Println("Unexpected websocket close:", err)
			}
			return
		}

		if req.Type == "subscribe" {
			select {
			case acks <- stream.SubscribedMessage(req.Filters):
			default:
			}
		}
	}
}

// wsWritePump is the single writer for the connection: hub frames, subscribe
// acks and keepalive pings all funnel through here.
func wsWritePump(conn *websocket.Conn, sub *stream.Subscriber, acks <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, stream.ConnectedMessage()); err != nil {
		return
	}

	for {
		select {
		case message, open := <-sub.Messages():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case ack := <-acks:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, ack); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
