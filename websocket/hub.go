package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventReportCreated    = "report.created"
	EventPaymentCompleted = "payment.completed"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	ID   uuid.UUID
	Conn Conn
}

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

var (
	clients    = make(map[uuid.UUID]Conn)
	clientsMu  sync.RWMutex
	Register   = make(chan *Client)
	Unregister = make(chan *Client)
	Broadcast  = make(chan Event, 64)

	hubMu   sync.Mutex
	hubDone chan struct{}
)

func doneChan() <-chan struct{} {
	hubMu.Lock()
	defer hubMu.Unlock()
	return hubDone
}

// Join registers a client with the running hub. It returns false once the
// hub has stopped; before the hub starts it waits for it.
func Join(c *Client) bool {
	select {
	case Register <- c:
		return true
	case <-doneChan():
		return false
	}
}

// Leave unregisters a client. It returns immediately if the hub has stopped.
func Leave(c *Client) {
	select {
	case Unregister <- c:
	case <-doneChan():
	}
}

// Publish queues an event for every connected admin. It never blocks; when
// the buffer is full the event is dropped.
func Publish(eventType string, data interface{}) {
	evt := Event{Type: eventType, Data: data, At: time.Now()}
	select {
	case Broadcast <- evt:
	default:
		zap.L().Warn("live feed buffer full, dropping event", zap.String("type", eventType))
	}
}

func ClientCount() int {
	clientsMu.RLock()
	defer clientsMu.RUnlock()
	return len(clients)
}

func RunHub(ctx context.Context) {
	done := make(chan struct{})
	hubMu.Lock()
	hubDone = done
	hubMu.Unlock()
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			clientsMu.Lock()
			for id, conn := range clients {
				_ = conn.Close()
				delete(clients, id)
			}
			clientsMu.Unlock()
			return
		case client := <-Register:
			zap.L().Debug("live feed client registered", zap.Stringer("client", client.ID))
			clientsMu.Lock()
			clients[client.ID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			clientsMu.Lock()
			if conn, ok := clients[client.ID]; ok && conn == client.Conn {
				delete(clients, client.ID)
			}
			clientsMu.Unlock()
		case evt := <-Broadcast:
			clientsMu.Lock()
			for id, conn := range clients {
				if err := conn.WriteJSON(evt); err != nil {
					zap.L().Warn("dropping live feed client", zap.Stringer("client", id), zap.Error(err))
					_ = conn.Close()
					delete(clients, id)
				}
			}
			clientsMu.Unlock()
		}
	}
}
