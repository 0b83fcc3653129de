package internal

import (
	"strings"
	"unicode"
)

// envInjectionMarker starts the synthetic environment block cursor-agent
// prepends to some user turns. It is context, not conversation.
const envInjectionMarker = "<user_info>"

// textLikePartTypes are the content part type tags whose "data" field may be
// used as display text. Anything else (e.g. redacted-reasoning) is opaque.
var textLikePartTypes = map[string]bool{
	"text":        true,
	"output_text": true,
	"input_text":  true,
}

// messageText extracts the display text from a decoded message object.
//
// A string content is used when non-blank. A list content is scanned in
// order: the first part with a non-blank "text" wins; a part's "data" is
// accepted only when its "type" tag is text-like. Objects yielding no text
// are dropped upstream, never surfaced as empty messages.
func messageText(obj map[string]interface{}) (string, bool) {
	switch content := obj["content"].(type) {
	case string:
		if strings.TrimSpace(content) != "" {
			return content, true
		}
	case []interface{}:
		for _, raw := range content {
			part, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if t, ok := part["text"].(string); ok && strings.TrimSpace(t) != "" {
				return t, true
			}
			if d, ok := part["data"].(string); ok && strings.TrimSpace(d) != "" {
				if tag, _ := part["type"].(string); textLikePartTypes[tag] {
					return d, true
				}
			}
		}
	}
	return "", false
}

// isEnvInjection reports whether a user message is the auto-injected
// environment block.
func isEnvInjection(role, text string) bool {
	if role != "user" {
		return false
	}
	return strings.HasPrefix(strings.TrimLeftFunc(text, unicode.IsSpace), envInjectionMarker)
}

// trimText trims surrounding whitespace from display text.
func trimText(text string) string {
	return strings.TrimSpace(text)
}

// messageID returns the message object's id when it carries a usable one.
func messageID(obj map[string]interface{}) string {
	if id, ok := obj["id"].(string); ok {
		return id
	}
	return ""
}
