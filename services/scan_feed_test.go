package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/shopfloor-app/hub"
	"github.com/yeremiapane/shopfloor-app/models"
)

type publishedMessage struct {
	scannerID string
	msg       hub.Message
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []publishedMessage
}

func (p *fakePublisher) Broadcast(msg hub.Message) {
	p.BroadcastToScanner("", msg)
}

func (p *fakePublisher) BroadcastToScanner(scannerID string, msg hub.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, publishedMessage{scannerID: scannerID, msg: msg})
}

func (p *fakePublisher) events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, s := range p.sent {
		out = append(out, s.msg.Event)
	}
	return out
}

func TestScanFeedPublishesNewScans(t *testing.T) {
	db := setupTestDB(t)
	presence := NewPresenceService(db)
	mustRegister(t, db, "Ana", "ABC123")
	mustRegister(t, db, "Budi", "XYZ999")

	_, err := presence.RecordScan(context.Background(), "ABC123", "S1")
	require.NoError(t, err)

	pub := &fakePublisher{}
	feed := NewScanFeed(db, pub, time.Hour)
	feed.Start()
	defer feed.Stop()

	assert.Zero(t, feed.CheckNewScans(), "backlog must be skipped")

	_, err = presence.RecordScan(context.Background(), "XYZ999", "S1")
	require.NoError(t, err)
	_, _ = presence.RecordScan(context.Background(), "GHOST", "S2")

	assert.Equal(t, 3, feed.CheckNewScans())
	assert.Equal(t, []string{hub.EventForcedLogout, hub.EventScan, hub.EventScanError}, pub.events())
	assert.Equal(t, "S1", pub.sent[0].scannerID)
	assert.Equal(t, "S2", pub.sent[2].scannerID)

	data, ok := pub.sent[0].msg.Data.(map[string]interface{})
	require.True(t, ok)
	worker, ok := data["worker"].(WorkerState)
	require.True(t, ok)
	assert.Equal(t, "ABC123", worker.TokenID)

	assert.Zero(t, feed.CheckNewScans())
}

func TestScanFeedPublishesLateCommits(t *testing.T) {
	db := setupTestDB(t)
	pub := &fakePublisher{}
	feed := NewScanFeed(db, pub, time.Hour)
	now := time.Now()

	// id 2 commits first; the transaction holding id 1 commits afterwards.
	require.NoError(t, db.Create(&models.ScanLog{ID: 2, TokenID: "XYZ999", Action: models.ScanActionLogin,
		ScannerID: "S1", Metadata: models.ScanMetadata{}, ScannedAt: now}).Error)
	assert.Equal(t, 1, feed.CheckNewScans())

	require.NoError(t, db.Create(&models.ScanLog{ID: 1, TokenID: "ABC123", Action: models.ScanActionLogout,
		ScannerID: "S1", Metadata: models.ScanMetadata{models.MetaForced: true}, ScannedAt: now}).Error)
	assert.Equal(t, 1, feed.CheckNewScans())
	assert.Zero(t, feed.CheckNewScans())

	assert.Equal(t, []string{hub.EventScan, hub.EventForcedLogout}, pub.events())
}

func TestScanFeedForgetsIDsOutsideLookback(t *testing.T) {
	db := setupTestDB(t)
	feed := NewScanFeed(db, &fakePublisher{}, time.Hour)
	feed.Lookback = 2

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.ScanLog{TokenID: "ABC123", Action: models.ScanActionLogin,
			ScannerID: "S1", Metadata: models.ScanMetadata{}, ScannedAt: time.Now()}).Error)
	}
	assert.Equal(t, 5, feed.CheckNewScans())
	assert.Len(t, feed.published, 2)
	assert.Zero(t, feed.CheckNewScans())
}

func TestScanFeedStopIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	feed := NewScanFeed(db, &fakePublisher{}, 0)
	assert.Equal(t, 500*time.Millisecond, feed.Interval)

	feed.Start()
	feed.Stop()
	assert.NotPanics(t, feed.Stop)
}
