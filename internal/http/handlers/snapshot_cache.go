package handlers

import (
	"strings"
	"sync"
	"time"
)

type snapshotCacheEntry struct {
	value     any
	expiresAt time.Time
}

const snapshotCacheMaxEntries = 200

var (
	snapshotCacheMu sync.Mutex
	snapshotCache   = map[string]snapshotCacheEntry{}
)

func snapshotCacheKey(prefix string, parts ...string) string {
	segments := make([]string, 0, 1+len(parts))
	segments = append(segments, prefix)
	segments = append(segments, parts...)
	return strings.Join(segments, "|")
}

func getSnapshotCache(key string) (any, bool) {
	snapshotCacheMu.Lock()
	defer snapshotCacheMu.Unlock()

	entry, ok := snapshotCache[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(snapshotCache, key)
		return nil, false
	}
	return entry.value, true
}

func setSnapshotCache(key string, value any, ttl time.Duration) {
	snapshotCacheMu.Lock()
	defer snapshotCacheMu.Unlock()

	snapshotCache[key] = snapshotCacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	if len(snapshotCache) > snapshotCacheMaxEntries {
		snapshotCache = map[string]snapshotCacheEntry{}
	}
}

func invalidateSnapshotCache() {
	snapshotCacheMu.Lock()
	defer snapshotCacheMu.Unlock()
	snapshotCache = map[string]snapshotCacheEntry{}
}
