package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/shopfloor-app/database"
	"github.com/yeremiapane/shopfloor-app/hub"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB gives each test its own in-memory SQLite database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type sentMessage struct {
	Channel string
	Msg     hub.Message
}

// recordingPublisher captures hub traffic instead of writing to sockets.
type recordingPublisher struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (p *recordingPublisher) Broadcast(msg hub.Message) {
	p.BroadcastToScanner("*", msg)
}

func (p *recordingPublisher) BroadcastToScanner(scannerID string, msg hub.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sentMessage{Channel: scannerID, Msg: msg})
}

func (p *recordingPublisher) last() sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sent) == 0 {
		return sentMessage{}
	}
	return p.sent[len(p.sent)-1]
}

type response struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func performJSON(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, response) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}
