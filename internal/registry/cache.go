package registry

import (
	"sync"
	"time"

	"rhystmorgan/giftterm/internal/contract"
)

const DefaultCacheTTL = 30 * time.Second

type cachedRecord struct {
	data        contract.BusinessData
	lastUpdated time.Time
}

// RecordCache keeps detail records fetched during listing so a refresh does
// not refetch every record. A zero TTL disables caching.
type RecordCache struct {
	mu      sync.RWMutex
	records map[string]cachedRecord
	ttl     time.Duration
	now     func() time.Time
}

func NewRecordCache(ttl time.Duration) *RecordCache {
	return &RecordCache{
		records: make(map[string]cachedRecord),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *RecordCache) Get(id string) (*contract.BusinessData, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	record, exists := c.records[id]
	if !exists || c.now().Sub(record.lastUpdated) > c.ttl {
		return nil, false
	}

	data := record.data
	return &data, true
}

func (c *RecordCache) Set(id string, data *contract.BusinessData) {
	if c == nil || c.ttl <= 0 || data == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[id] = cachedRecord{data: *data, lastUpdated: c.now()}
}

func (c *RecordCache) Invalidate(id string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.records, id)
}

func (c *RecordCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = make(map[string]cachedRecord)
}

// Cleanup drops expired entries.
func (c *RecordCache) Cleanup() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, record := range c.records {
		if now.Sub(record.lastUpdated) > c.ttl {
			delete(c.records, id)
		}
	}
}

func (c *RecordCache) Size() int {
	if c == nil {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.records)
}
