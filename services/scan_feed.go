package services

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/shopfloor-app/hub"
	"github.com/yeremiapane/shopfloor-app/models"
	"github.com/yeremiapane/shopfloor-app/utils"
)

// Publisher delivers floor events to connected displays.
type Publisher interface {
	Broadcast(msg hub.Message)
	BroadcastToScanner(scannerID string, msg hub.Message)
}

// ScanFeed tails the scan_logs table and republishes every new entry, so a
// terminal learns when its occupant was forced out by a scan elsewhere in
// the process or by another instance sharing the database.
//
// Ids are handed out at insert time, so a transaction holding a lower id can
// commit after a higher one has been read. Each poll therefore re-reads the
// last Lookback ids and skips the ones already published.
type ScanFeed struct {
	DB        *gorm.DB
	Publisher Publisher
	StopChan  chan struct{}
	Interval  time.Duration
	BatchSize int
	Lookback  uint

	baseID    uint
	lastID    uint
	published map[uint]struct{}
	stopOnce  sync.Once
}

func NewScanFeed(db *gorm.DB, publisher Publisher, interval time.Duration) *ScanFeed {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &ScanFeed{
		DB:        db,
		Publisher: publisher,
		StopChan:  make(chan struct{}),
		Interval:  interval,
		BatchSize: 100,
		Lookback:  1000,
		published: make(map[uint]struct{}),
	}
}

// Start skips the existing backlog and polls for new scans until Stop.
func (sf *ScanFeed) Start() {
	if err := sf.DB.Model(&models.ScanLog{}).Select("COALESCE(MAX(id), 0)").Scan(&sf.lastID).Error; err != nil {
		utils.ErrorLogger.Printf("Error reading scan feed position: %v", err)
	}
	sf.baseID = sf.lastID
	utils.InfoLogger.Printf("Scan feed started at log id %d", sf.lastID)

	go func() {
		ticker := time.NewTicker(sf.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sf.CheckNewScans()
			case <-sf.StopChan:
				return
			}
		}
	}()
}

func (sf *ScanFeed) Stop() {
	sf.stopOnce.Do(func() { close(sf.StopChan) })
}

// CheckNewScans publishes logs committed since the last call and returns how
// many were published.
func (sf *ScanFeed) CheckNewScans() int {
	if sf.published == nil {
		sf.published = make(map[uint]struct{})
	}
	floor := sf.floor()
	query := sf.DB.Preload("Worker").Where("id > ?", floor)
	if seen := sf.seenSince(floor); len(seen) > 0 {
		query = query.Where("id NOT IN ?", seen)
	}

	var logs []models.ScanLog
	if err := query.Order("id ASC").Limit(sf.BatchSize).Find(&logs).Error; err != nil {
		utils.ErrorLogger.Printf("Error fetching scan logs: %v", err)
		return 0
	}

	for _, entry := range logs {
		sf.publish(entry)
		sf.published[entry.ID] = struct{}{}
		if entry.ID > sf.lastID {
			sf.lastID = entry.ID
		}
	}
	sf.prune()
	return len(logs)
}

// floor is the highest id that is no longer re-read. It never drops below
// the position the feed started at.
func (sf *ScanFeed) floor() uint {
	if sf.lastID <= sf.baseID+sf.Lookback {
		return sf.baseID
	}
	return sf.lastID - sf.Lookback
}

func (sf *ScanFeed) seenSince(floor uint) []uint {
	seen := make([]uint, 0, len(sf.published))
	for id := range sf.published {
		if id > floor {
			seen = append(seen, id)
		}
	}
	return seen
}

// prune forgets ids that have fallen out of the lookback window.
func (sf *ScanFeed) prune() {
	floor := sf.floor()
	for id := range sf.published {
		if id <= floor {
			delete(sf.published, id)
		}
	}
}

func (sf *ScanFeed) publish(entry models.ScanLog) {
	event := hub.EventScan
	switch {
	case entry.Action == models.ScanActionError:
		event = hub.EventScanError
	case entry.Metadata.Forced():
		event = hub.EventForcedLogout
	}

	data := map[string]interface{}{
		"log_id":     entry.ID,
		"token_id":   entry.TokenID,
		"action":     entry.Action,
		"scanner_id": entry.ScannerID,
		"metadata":   entry.Metadata,
		"timestamp":  entry.ScannedAt,
	}
	if entry.Worker != nil {
		data["worker"] = NewWorkerState(*entry.Worker)
	}

	sf.Publisher.BroadcastToScanner(entry.ScannerID, hub.Message{Event: event, Data: data})
}
