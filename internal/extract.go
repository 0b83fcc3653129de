package internal

import "math"

// NoLimit marks an unbounded message or blob budget.
const NoLimit = math.MaxInt

// DefaultRoles is the role allow-list used when callers have no opinion.
var DefaultRoles = []string{"user", "assistant"}

// Per-blob object budgets, matching the preview and bulk scan depths.
const (
	maxObjectsPerBlob        = 500
	maxObjectsPreview        = 200
	fallbackRecentBlobWindow = 200
)

// Extractor extracts normalized messages from one store.db, caching full
// unbounded histories in a HistoryCache.
type Extractor struct {
	store *StoreReader
	cache *HistoryCache
}

// NewExtractor creates an Extractor backed by the shared process cache.
func NewExtractor(store *StoreReader) *Extractor {
	return &Extractor{store: store, cache: defaultHistoryCache}
}

// NewExtractorWithCache creates an Extractor with an explicit cache. A nil
// cache disables caching entirely.
func NewExtractorWithCache(store *StoreReader, cache *HistoryCache) *Extractor {
	return &Extractor{store: store, cache: cache}
}

// dedupState enforces the two dedup rules at append time: exact-duplicate
// (role, id-or-text) pairs are suppressed globally (first occurrence wins)
// and identical (role, text) pairs never appear adjacently.
type dedupState struct {
	seen     map[Message]bool
	messages []Message
}

func newDedupState() *dedupState {
	return &dedupState{seen: make(map[Message]bool)}
}

// add appends a message unless a dedup rule suppresses it. The global key
// prefers the message id over the text: re-embedded copies of one message
// still dedup after an in-place text edit, while distinct messages that
// legitimately repeat the same text non-adjacently (a user answering "yes"
// twice) both survive. Text is the key only for objects without an id.
func (d *dedupState) add(role, text, id string) {
	key := Message{Role: role, Text: text}
	if id != "" {
		key = Message{Role: role, Text: id}
	}
	if d.seen[key] {
		return
	}
	d.seen[key] = true

	msg := Message{Role: role, Text: text}
	if n := len(d.messages); n > 0 && d.messages[n-1] == msg {
		return
	}
	d.messages = append(d.messages, msg)
}

// ExtractRecent returns up to maxMessages chronological messages from the
// tail of the store, scanning at most maxBlobs of the most recent blobs.
// Pass NoLimit for both to extract the full history; only that unbounded
// form is served from (and recorded in) the cache.
//
// Store failures are not propagated: a missing or locked store yields nil.
func (e *Extractor) ExtractRecent(roles []string, maxMessages, maxBlobs int) []Message {
	if maxMessages <= 0 || maxBlobs <= 0 {
		return nil
	}

	if maxMessages == NoLimit && maxBlobs == NoLimit && e.cache != nil {
		fp, err := e.store.FetchFingerprint()
		if err != nil {
			LogDebug("Fingerprint unavailable for %s: %v", e.store.Path(), err)
			return e.scanRecent(roles, NoLimit, NoLimit)
		}
		if msgs, ok := e.cache.Get(e.store.Path(), roles, fp); ok {
			LogDebug("Full-history cache hit for %s (%d messages)", e.store.Path(), len(msgs))
			return msgs
		}
		msgs := e.scanRecent(roles, NoLimit, NoLimit)
		e.cache.Put(e.store.Path(), roles, fp, msgs)
		return msgs
	}

	return e.scanRecent(roles, maxMessages, maxBlobs)
}

// ExtractInitial returns up to maxMessages chronological messages from the
// beginning of the store, reading blobs one row at a time in ascending order
// and stopping as soon as enough messages have accumulated. Rows past the
// stop are never read, so the call stays cheap against very large stores.
//
// When the shared cache holds a fresh full history for the same roles, the
// result is its head slice: the fingerprint check is the only store access
// and no blob is decoded. Initial extraction never populates the cache.
func (e *Extractor) ExtractInitial(roles []string, maxMessages, maxBlobs int) []Message {
	if maxMessages <= 0 || maxBlobs <= 0 {
		return nil
	}

	if e.cache != nil {
		if fp, err := e.store.FetchFingerprint(); err == nil {
			if msgs, ok := e.cache.Get(e.store.Path(), roles, fp); ok {
				LogDebug("Initial extraction served from cache head for %s", e.store.Path())
				if maxMessages >= len(msgs) {
					return msgs
				}
				return msgs[:maxMessages]
			}
		}
	}

	dedup := newDedupState()
	err := e.store.StreamRowsAscending(maxBlobs, func(row BlobRow) bool {
		e.scanBlob(row.Data, roles, dedup)
		return len(dedup.messages) < maxMessages
	})
	if err != nil {
		LogDebug("Initial extraction failed for %s: %v", e.store.Path(), err)
		return nil
	}

	if len(dedup.messages) > maxMessages {
		return dedup.messages[:maxMessages]
	}
	return dedup.messages
}

// scanRecent reads up to maxBlobs of the most recent blobs, restores
// chronological order, scans them all, and returns the last maxMessages
// entries.
func (e *Extractor) scanRecent(roles []string, maxMessages, maxBlobs int) []Message {
	rows, err := e.store.FetchRowsDescending(maxBlobs)
	if err != nil {
		LogDebug("Recent extraction failed for %s: %v", e.store.Path(), err)
		return nil
	}

	// Rows arrive newest first; scan oldest first so output is chronological.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	dedup := newDedupState()
	for _, row := range rows {
		e.scanBlob(row.Data, roles, dedup)
	}

	if maxMessages != NoLimit && len(dedup.messages) > maxMessages {
		return dedup.messages[len(dedup.messages)-maxMessages:]
	}
	return dedup.messages
}

// scanBlob extracts messages from one blob into the dedup state. The
// role-anchored scanner runs first; when it accepts nothing from a blob that
// still carries both a brace and the role marker, the baseline scanner
// re-walks the blob. That fallback is load-bearing for layouts the anchored
// heuristics cannot reach, e.g. a message object wider than the backward
// window.
func (e *Extractor) scanBlob(blob []byte, roles []string, dedup *dedupState) {
	if !blobMayContainMessage(blob) {
		return
	}

	accepted := 0
	rs := NewRoleScanner(blob, roles)
	for {
		obj, ok := rs.Next()
		if !ok {
			break
		}
		accepted++
		e.collect(obj, dedup)
	}
	if accepted > 0 {
		return
	}

	LogDebug("Role-anchored scan found nothing in a marker-bearing blob (%d bytes); falling back to baseline scan", len(blob))
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	os := NewObjectScanner(blob, maxObjectsPerBlob)
	for {
		obj, ok := os.Next()
		if !ok {
			break
		}
		if role, _ := obj["role"].(string); !allowed[role] {
			continue
		}
		e.collect(obj, dedup)
	}
}

// collect normalizes one accepted message object and appends it under the
// dedup rules. Objects with no extractable text and synthetic environment
// blocks are dropped.
func (e *Extractor) collect(obj map[string]interface{}, dedup *dedupState) {
	role, _ := obj["role"].(string)
	text, ok := messageText(obj)
	if !ok {
		return
	}
	if isEnvInjection(role, text) {
		return
	}
	dedup.add(role, trimText(text), messageID(obj))
}
