package internal

import "strings"

// DefaultPreviewChars is the per-message character budget for previews.
const DefaultPreviewChars = 600

// RoleLabel maps a raw role string to its display label.
func RoleLabel(role string) string {
	switch role {
	case "user":
		return "User"
	case "assistant":
		return "Assistant"
	default:
		return role
	}
}

// FormatMessagesPreview renders messages into a multi-line preview string.
// Each message is truncated to maxCharsPerMessage runes (0 or negative
// disables truncation).
func FormatMessagesPreview(messages []Message, maxCharsPerMessage int) string {
	var parts []string
	for _, m := range messages {
		parts = append(parts, RoleLabel(m.Role)+":")
		text := strings.TrimSpace(m.Text)
		if maxCharsPerMessage > 0 {
			runes := []rune(text)
			if len(runes) > maxCharsPerMessage {
				text = strings.TrimRight(string(runes[:maxCharsPerMessage-1]), " \t\r\n") + "…"
			}
		}
		parts = append(parts, text, "")
	}
	return strings.TrimRight(strings.Join(parts, "\n"), "\n")
}
