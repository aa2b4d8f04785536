package logger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Publisher ships a batch of aggregated entries to a topic.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

// CollectionConfig configures a LogCollector. Zero TimeInterval and
// CountThreshold default to 30s and 100.
type CollectionConfig struct {
	TimeInterval   time.Duration
	CountThreshold int
	Topic          string
	Publisher      Publisher
}

// AggregatedLogEntry is one deduplicated entry with its occurrence window.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector deduplicates repeated entries and ships them in batches.
// Identical (level, message, fields, caller) tuples collapse into one
// entry with a count, so a model type flapping in and out of drift does
// not flood the audit topic.
type LogCollector struct {
	config *CollectionConfig
	logMap map[string]*AggregatedLogEntry
	mutex  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLogCollector starts the periodic flush loop immediately.
func NewLogCollector(config *CollectionConfig) *LogCollector {
	if config.TimeInterval <= 0 {
		config.TimeInterval = 30 * time.Second
	}
	if config.CountThreshold <= 0 {
		config.CountThreshold = 100
	}

	ctx, cancel := context.WithCancel(context.Background())

	collector := &LogCollector{
		config: config,
		logMap: make(map[string]*AggregatedLogEntry),
		ctx:    ctx,
		cancel: cancel,
	}

	collector.wg.Add(1)
	go collector.periodicFlush()

	return collector
}

// AddLog records one entry, collapsing it into an existing identical one.
// Reaching the count threshold flushes early.
func (lc *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	lc.mutex.Lock()
	defer lc.mutex.Unlock()

	if entry, exists := lc.logMap[key]; exists {
		entry.Count++
		entry.LastSeen = now
	} else {
		lc.logMap[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}

	if len(lc.logMap) >= lc.config.CountThreshold {
		lc.flushLocked()
	}
}

// entryKey hashes the identity tuple. Map marshaling sorts keys, so field
// order at the call site does not split entries.
func entryKey(level, message string, fields map[string]interface{}, caller string) string {
	fj, _ := json.Marshal(fields)

	h := sha256.New()
	h.Write([]byte(level))
	h.Write([]byte{0})
	h.Write([]byte(message))
	h.Write([]byte{0})
	h.Write(fj)
	h.Write([]byte{0})
	h.Write([]byte(caller))
	return hex.EncodeToString(h.Sum(nil))
}

func (lc *LogCollector) periodicFlush() {
	defer lc.wg.Done()

	ticker := time.NewTicker(lc.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lc.mutex.Lock()
			lc.flushLocked()
			lc.mutex.Unlock()
		case <-lc.ctx.Done():
			// Final flush so entries collected since the last tick still
			// ship before Close returns.
			lc.mutex.Lock()
			lc.flushLocked()
			lc.mutex.Unlock()
			return
		}
	}
}

// flushLocked snapshots and clears the map, publishing off the lock. The
// caller must hold the mutex.
func (lc *LogCollector) flushLocked() {
	if len(lc.logMap) == 0 {
		return
	}

	logs := make([]AggregatedLogEntry, 0, len(lc.logMap))
	for _, entry := range lc.logMap {
		logs = append(logs, *entry)
	}
	lc.logMap = make(map[string]*AggregatedLogEntry)

	lc.wg.Add(1)
	go func() {
		defer lc.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := lc.config.Publisher.PublishMessage(ctx, lc.config.Topic, logs); err != nil {
			log.Printf("failed to ship aggregated entries: %v", err)
		}
	}()
}

// Close flushes pending entries and waits for in-flight publishes.
func (lc *LogCollector) Close() {
	lc.cancel()
	lc.wg.Wait()
}
