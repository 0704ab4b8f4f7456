package main

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Chance that a lookup triggers a sweep of expired records.
const cleanupProbability = 0.01

// ViewTracker records who viewed which blog post and when, so a view
// counter is incremented at most once per viewer per TTL window. Dedup is
// best effort: simultaneous first-time views from the same viewer may
// both pass the check. The TTL comparison at lookup time is what decides
// correctness; eviction only bounds memory.
type ViewTracker struct {
	records sync.Map // view key -> time.Time of last recorded view
	ttl     time.Duration
	now     func() time.Time
}

func NewViewTracker(ttl time.Duration) *ViewTracker {
	return &ViewTracker{ttl: ttl, now: time.Now}
}

// HasRecentView reports whether the viewer has a recorded view of the
// blog post within the TTL window.
func (v *ViewTracker) HasRecentView(blogID int64, viewer string) bool {
	if viewer == "" {
		return false
	}

	// Low-probability sweep keeps the map bounded without a timer.
	if rand.Float64() < cleanupProbability {
		v.cleanup()
	}

	val, ok := v.records.Load(viewKey(blogID, viewer))
	if !ok {
		return false
	}
	return val.(time.Time).Add(v.ttl).After(v.now())
}

// RecordView upserts the (blog, viewer) record with the current time.
func (v *ViewTracker) RecordView(blogID int64, viewer string) {
	if viewer == "" {
		return
	}
	v.records.Store(viewKey(blogID, viewer), v.now())
}

func viewKey(blogID int64, viewer string) string {
	return fmt.Sprintf("blog:%d:%s", blogID, viewer)
}

func (v *ViewTracker) cleanup() {
	threshold := v.now().Add(-v.ttl)
	v.records.Range(func(key, val interface{}) bool {
		if val.(time.Time).Before(threshold) {
			v.records.Delete(key)
		}
		return true
	})
}
