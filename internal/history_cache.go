package internal

import (
	"container/list"
	"strings"
	"sync"
)

// Default full-history cache bounds.
const (
	DefaultCacheMaxEntries = 24
	DefaultCacheMaxBytes   = 32 << 20

	// Approximate fixed cost of one cache entry beyond its message payload.
	cacheEntryOverhead = 256
)

// historyEntry is one cached full-history extraction.
type historyEntry struct {
	key      string
	fp       Fingerprint
	messages []Message
	size     int
}

// HistoryCache is a process-wide, thread-safe LRU of fully-extracted message
// histories, keyed by (store path, requested roles) and stamped with the
// store fingerprint. A lookup whose fingerprint no longer matches is a miss;
// the stale entry is superseded by the next Put rather than actively evicted.
//
// Both the entry count and the approximate payload bytes are bounded;
// insertion evicts least-recently-used entries until both bounds hold. The
// single mutex guards the LRU list and the running byte total together.
type HistoryCache struct {
	mu         sync.Mutex
	maxEntries int
	maxBytes   int
	ll         *list.List // front is most recently used
	items      map[string]*list.Element
	totalBytes int
}

// NewHistoryCache creates a cache bounded by entry count and approximate
// payload bytes. Non-positive bounds fall back to the defaults.
func NewHistoryCache(maxEntries, maxBytes int) *HistoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	if maxBytes <= 0 {
		maxBytes = DefaultCacheMaxBytes
	}
	return &HistoryCache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
}

// defaultHistoryCache is the process-lifetime cache used by extractors that
// are not constructed with an explicit one.
var defaultHistoryCache = NewHistoryCache(DefaultCacheMaxEntries, DefaultCacheMaxBytes)

// DefaultHistoryCache returns the shared process-wide cache.
func DefaultHistoryCache() *HistoryCache {
	return defaultHistoryCache
}

// ClearHistoryCache empties the shared cache. Intended for tests.
func ClearHistoryCache() {
	defaultHistoryCache.Clear()
}

func cacheKey(storePath string, roles []string) string {
	return storePath + "\x00" + strings.Join(roles, ",")
}

func entrySize(messages []Message) int {
	size := cacheEntryOverhead
	for _, m := range messages {
		size += len(m.Role) + len(m.Text)
	}
	return size
}

// Get returns the cached message history for the store and roles when the
// fingerprint still matches. The returned slice is shared; callers must not
// mutate it. Recency is bumped on a hit.
func (c *HistoryCache) Get(storePath string, roles []string, fp Fingerprint) ([]Message, bool) {
	key := cacheKey(storePath, roles)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*historyEntry)
	if entry.fp != fp {
		LogDebug("History cache stale for %s (cached seq=%d, live seq=%d)", storePath, entry.fp.MaxSeq, fp.MaxSeq)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return entry.messages, true
}

// Put stores a full-history extraction, replacing any entry for the same
// store and roles, then evicts LRU entries until both bounds are satisfied.
func (c *HistoryCache) Put(storePath string, roles []string, fp Fingerprint, messages []Message) {
	key := cacheKey(storePath, roles)
	size := entrySize(messages)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		entry := el.Value.(*historyEntry)
		c.totalBytes += size - entry.size
		entry.fp = fp
		entry.messages = messages
		entry.size = size
		c.ll.MoveToFront(el)
	} else {
		entry := &historyEntry{key: key, fp: fp, messages: messages, size: size}
		c.items[key] = c.ll.PushFront(entry)
		c.totalBytes += size
	}

	for (c.ll.Len() > c.maxEntries || c.totalBytes > c.maxBytes) && c.ll.Len() > 0 {
		c.removeOldest()
	}
}

func (c *HistoryCache) removeOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	entry := el.Value.(*historyEntry)
	c.ll.Remove(el)
	delete(c.items, entry.key)
	c.totalBytes -= entry.size
	LogDebug("History cache evicted entry (%d bytes)", entry.size)
}

// Len returns the number of cached entries.
func (c *HistoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// SizeBytes returns the approximate payload bytes currently cached.
func (c *HistoryCache) SizeBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalBytes
}

// Clear removes every entry.
func (c *HistoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.totalBytes = 0
}
