package internal

import (
	"encoding/hex"
	"encoding/json"
	"strings"
)

// maybeDecodeHexJSON decodes a meta value that is either hex-encoded JSON
// (the legacy single-row encoding) or plain JSON. Returns nil when neither
// decode yields an object.
func maybeDecodeHexJSON(s string) map[string]interface{} {
	ss := strings.TrimSpace(s)
	if ss == "" {
		return nil
	}

	if len(ss)%2 == 0 && isHexString(ss) {
		if raw, err := hex.DecodeString(ss); err == nil {
			var obj map[string]interface{}
			if err := json.Unmarshal(raw, &obj); err == nil {
				return obj
			}
		}
		return nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(ss), &obj); err == nil {
		return obj
	}
	return nil
}

func isHexString(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ReadChatMeta reads the chat metadata from the store's meta table.
//
// Observed layouts: a single row whose value is hex-encoded JSON bytes
// (preferred decode), or a flat key/value map (fallback when the structured
// decode fails or is absent). Returns nil when the store is unavailable or
// the metadata carries no agentId.
func (r *StoreReader) ReadChatMeta() *ChatMeta {
	rows, err := r.FetchMetaRows()
	if err != nil {
		LogDebug("Meta read failed for %s: %v", r.dbPath, err)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	var obj map[string]interface{}
	if len(rows) == 1 {
		obj = maybeDecodeHexJSON(rows[0].Value)
	}
	if obj == nil {
		obj = make(map[string]interface{}, len(rows))
		for _, row := range rows {
			obj[row.Key] = row.Value
		}
	}

	agentID, _ := obj["agentId"].(string)
	if agentID == "" {
		return nil
	}

	meta := &ChatMeta{AgentID: agentID, Name: "Untitled"}
	if v, ok := obj["latestRootBlobId"].(string); ok && v != "" {
		meta.LatestRootBlobID = v
	}
	if v, ok := obj["name"].(string); ok && strings.TrimSpace(v) != "" {
		meta.Name = v
	}
	if v, ok := obj["mode"].(string); ok {
		meta.Mode = v
	}
	switch v := obj["createdAt"].(type) {
	case float64:
		meta.CreatedAtMs = int64(v)
	case int64:
		meta.CreatedAtMs = v
	}
	return meta
}

// LastMessagePreview returns the newest qualifying (role, text) pair for a
// chat. The identified root blob is scanned with the baseline scanner for
// the last message in document order; a root blob that yields nothing falls
// back to a bounded recent extraction over the whole store.
func (e *Extractor) LastMessagePreview(latestRootBlobID string) (string, string, bool) {
	if latestRootBlobID != "" {
		blob, err := e.store.FetchBlobByID(latestRootBlobID)
		if err != nil {
			LogDebug("Root blob fetch failed for %s: %v", e.store.Path(), err)
		}
		if len(blob) > 0 {
			var lastRole, lastText string
			os := NewObjectScanner(blob, maxObjectsPreview)
			for {
				obj, ok := os.Next()
				if !ok {
					break
				}
				role, ok := obj["role"].(string)
				if !ok {
					continue
				}
				text, ok := messageText(obj)
				if !ok {
					continue
				}
				if isEnvInjection(role, text) {
					continue
				}
				lastRole, lastText = role, trimText(text)
			}
			if lastText != "" {
				return lastRole, lastText, true
			}
		}
	}

	msgs := e.ExtractRecent(DefaultRoles, 1, fallbackRecentBlobWindow)
	if len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		return last.Role, last.Text, true
	}
	return "", "", false
}
