package repository

import (
	"time"

	"github.com/futig/interview-engine/internal/entity"
	"github.com/patrickmn/go-cache"
)

// SnapshotCache keeps the latest snapshot of every session for resumption.
type SnapshotCache struct {
	cache *cache.Cache
}

func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		cache: cache.New(ttl, ttl/2),
	}
}

// Save stores a copy of the snapshot and refreshes its expiration.
func (c *SnapshotCache) Save(snapshot *entity.Snapshot) {
	if snapshot == nil || snapshot.SessionID == "" {
		return
	}

	stored := *snapshot
	stored.Questions = cloneRecords(snapshot.Questions)
	c.cache.SetDefault(snapshot.SessionID, &stored)
}

func (c *SnapshotCache) Get(sessionID string) (*entity.Snapshot, bool) {
	v, ok := c.cache.Get(sessionID)
	if !ok {
		return nil, false
	}

	stored := *v.(*entity.Snapshot)
	stored.Questions = cloneRecords(stored.Questions)
	return &stored, true
}

func (c *SnapshotCache) Delete(sessionID string) {
	c.cache.Delete(sessionID)
}

func cloneRecords(records []entity.QuestionRecord) []entity.QuestionRecord {
	out := make([]entity.QuestionRecord, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}
