package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/muurk/smartweb/internal/device"
	"github.com/muurk/smartweb/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; subscribers only send control frames
	maxMessageSize = 512

	// Queued messages per subscriber before it is dropped as too slow
	sendBuffer = 32
)

// Feed message types
const (
	MessageSnapshot = "snapshot"
	MessageUpdate   = "update"
)

// Message is one JSON frame on the state feed. The first frame a subscriber
// receives is a snapshot of every device; later frames carry one device.
type Message struct {
	Type    string         `json:"type"`
	Devices []device.State `json:"devices,omitempty"`
	Device  *device.State  `json:"device,omitempty"`
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// Feed fans device state changes out to WebSocket subscribers
type Feed struct {
	upgrader websocket.Upgrader
	snapshot func() []device.State

	mu          sync.Mutex
	subscribers map[string]*subscriber
	wg          sync.WaitGroup
}

// NewFeed creates a feed. snapshot supplies the initial frame for new subscribers.
func NewFeed(snapshot func() []device.State) *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		snapshot:    snapshot,
		subscribers: make(map[string]*subscriber),
	}
}

// Handle upgrades the request and streams state until the peer goes away
func (f *Feed) Handle(c echo.Context) error {
	conn, err := f.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written an HTTP error
		logging.Warn("WebSocket upgrade failed", zap.String("remote_addr", c.RealIP()), zap.Error(err))
		return nil
	}

	sub := &subscriber{
		id:   ksuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	initial, err := json.Marshal(Message{Type: MessageSnapshot, Devices: f.snapshot()})
	if err == nil {
		sub.send <- initial
	}

	f.mu.Lock()
	f.subscribers[sub.id] = sub
	f.wg.Add(1)
	f.mu.Unlock()

	logging.Info("Feed subscriber connected",
		zap.String("subscriber", sub.id),
		zap.String("remote_addr", c.RealIP()),
	)

	go f.writePump(sub)
	f.readPump(sub)
	return nil
}

// readPump discards inbound frames and returns when the peer disconnects
func (f *Feed) readPump(sub *subscriber) {
	defer f.remove(sub)

	sub.conn.SetReadLimit(maxMessageSize)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("Feed subscriber read error", zap.String("subscriber", sub.id), zap.Error(err))
			}
			return
		}
	}
}

func (f *Feed) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
		f.wg.Done()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				f.remove(sub)
				return
			}

		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				f.remove(sub)
				return
			}
		}
	}
}

func (f *Feed) remove(sub *subscriber) {
	f.mu.Lock()
	_, ok := f.subscribers[sub.id]
	delete(f.subscribers, sub.id)
	f.mu.Unlock()

	sub.close()
	if ok {
		logging.Info("Feed subscriber disconnected", zap.String("subscriber", sub.id))
	}
}

// Broadcast queues an update for every subscriber. Subscribers whose queue
// is full are disconnected.
func (f *Feed) Broadcast(state device.State) {
	msg, err := json.Marshal(Message{Type: MessageUpdate, Device: &state})
	if err != nil {
		logging.Error("Failed to encode feed update", zap.Error(err))
		return
	}

	f.mu.Lock()
	var slow []*subscriber
	for _, sub := range f.subscribers {
		select {
		case sub.send <- msg:
		default:
			slow = append(slow, sub)
		}
	}
	f.mu.Unlock()

	for _, sub := range slow {
		logging.Warn("Dropping slow feed subscriber", zap.String("subscriber", sub.id))
		f.remove(sub)
	}
}

// Count returns the number of connected subscribers
func (f *Feed) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

// Close disconnects every subscriber and waits for their writers to exit
func (f *Feed) Close() {
	f.mu.Lock()
	subs := make([]*subscriber, 0, len(f.subscribers))
	for _, sub := range f.subscribers {
		subs = append(subs, sub)
	}
	f.mu.Unlock()

	for _, sub := range subs {
		f.remove(sub)
	}
	f.wg.Wait()
}
