package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

// newHubServer registers every incoming connection on the channel named by
// the "channel" query parameter.
func newHubServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Register(conn, r.URL.Query().Get("channel"))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.Unregister(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, channel string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?channel=" + channel
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h := New()
	srv := newHubServer(t, h)

	s1 := dial(t, srv, "S1")
	admin := dial(t, srv, AdminChannel)
	waitForClients(t, h, 2)

	h.Broadcast(Message{Event: EventOrderCreated, Data: "PO-1"})

	assert.Equal(t, EventOrderCreated, readMessage(t, s1).Event)
	assert.Equal(t, EventOrderCreated, readMessage(t, admin).Event)
}

func TestBroadcastToScannerSkipsOtherScanners(t *testing.T) {
	h := New()
	srv := newHubServer(t, h)

	s1 := dial(t, srv, "S1")
	s2 := dial(t, srv, "S2")
	admin := dial(t, srv, AdminChannel)
	waitForClients(t, h, 3)

	h.BroadcastToScanner("S1", Message{Event: EventScan, Data: "login"})
	h.Broadcast(Message{Event: EventWorkerUpdate, Data: "marker"})

	assert.Equal(t, EventScan, readMessage(t, s1).Event)
	assert.Equal(t, EventScan, readMessage(t, admin).Event)
	// S2 only ever sees the follow-up broadcast
	assert.Equal(t, EventWorkerUpdate, readMessage(t, s2).Event)
}

func TestUnregisterRemovesClient(t *testing.T) {
	h := New()
	srv := newHubServer(t, h)

	conn := dial(t, srv, "S1")
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)
}

func TestStalledClientDoesNotBlockOthers(t *testing.T) {
	h := New()
	srv := newHubServer(t, h)

	stalled := dial(t, srv, "S1")
	healthy := dial(t, srv, "S2")
	waitForClients(t, h, 2)

	h.mutex.Lock()
	var slow *client
	for _, c := range h.clients {
		if c.channel == "S1" {
			slow = c
		}
	}
	h.mutex.Unlock()
	require.NotNil(t, slow)

	slow.writeMu.Lock()
	done := make(chan struct{})
	go func() {
		h.Broadcast(Message{Event: EventWorkerUpdate, Data: "ping"})
		close(done)
	}()

	assert.Equal(t, EventWorkerUpdate, readMessage(t, healthy).Event)
	assert.Equal(t, 2, h.ClientCount())

	select {
	case <-done:
		t.Fatal("broadcast finished while a client write was still pending")
	default:
	}

	slow.writeMu.Unlock()
	<-done
	assert.Equal(t, EventWorkerUpdate, readMessage(t, stalled).Event)
}
