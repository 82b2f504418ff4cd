package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yeremiapane/shopfloor-app/utils"
)

// Event types
const (
	EventScan           = "scan"
	EventForcedLogout   = "forced_logout"
	EventScanError      = "scan_error"
	EventOrderCreated   = "order_created"
	EventBundleAssigned = "bundle_assigned"
	EventWorkerUpdate   = "worker_update"
)

// AdminChannel receives every event regardless of scanner.
const AdminChannel = "admin"

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub tracks connected floor displays. Each connection is subscribed to a
// single scanner id, or to AdminChannel.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
}

// client serializes writes to one connection.
type client struct {
	conn    *websocket.Conn
	channel string
	writeMu sync.Mutex
}

func New() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
	}
}

func (h *Hub) Register(conn *websocket.Conn, channel string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = &client{conn: conn, channel: channel}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mutex.Unlock()

	if ok {
		conn.Close()
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Broadcast sends msg to every connected client.
func (h *Hub) Broadcast(msg Message) {
	h.send(msg, func(string) bool { return true })
}

// BroadcastToScanner sends msg to the displays of one scanner and to admins.
func (h *Hub) BroadcastToScanner(scannerID string, msg Message) {
	h.send(msg, func(channel string) bool {
		return channel == scannerID || channel == AdminChannel
	})
}

// send writes to every matching client concurrently, outside the registry
// lock, so a stalled display only delays itself.
func (h *Hub) send(msg Message, match func(channel string) bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling hub message: %v", err)
		return
	}

	h.mutex.Lock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		if match(c.channel) {
			targets = append(targets, c)
		}
	}
	h.mutex.Unlock()

	var wg sync.WaitGroup
	for _, c := range targets {
		wg.Add(1)
		go func(c *client) {
			defer wg.Done()
			if err := c.write(data); err != nil {
				utils.ErrorLogger.Printf("Dropping %s client after write error: %v", c.channel, err)
				h.Unregister(c.conn)
			}
		}(c)
	}
	wg.Wait()
}

func (c *client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
