package internal

import (
	"path/filepath"
	"time"
)

// Message is a normalized chat message extracted from a store.db blob.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ChatMeta holds the metadata stored in a store.db meta table.
type ChatMeta struct {
	AgentID          string `json:"agentId"`
	LatestRootBlobID string `json:"latestRootBlobId,omitempty"`
	Name             string `json:"name"`
	Mode             string `json:"mode,omitempty"`
	CreatedAtMs      int64  `json:"createdAt,omitempty"`
}

// GetCreatedAt returns the creation time, or the zero time when unknown.
func (m *ChatMeta) GetCreatedAt() time.Time {
	if m.CreatedAtMs == 0 {
		return time.Time{}
	}
	return time.Unix(0, m.CreatedAtMs*int64(time.Millisecond))
}

// AgentWorkspace is a workspace (folder) bucket for cursor-agent chats.
//
// cursor-agent stores chats under <chats-root>/<md5(cwd)>/<chatId>/store.db
type AgentWorkspace struct {
	CwdHash       string
	WorkspacePath string // empty when the hash could not be mapped back to a folder
	ChatsRoot     string
}

// DisplayName returns a human-readable label for the workspace
func (w AgentWorkspace) DisplayName() string {
	if w.WorkspacePath == "" {
		return "Unknown (" + w.CwdHash + ")"
	}
	name := filepath.Base(w.WorkspacePath)
	if name == "" || name == "." {
		return w.WorkspacePath
	}
	return name
}

// AgentChat describes one chat directory under a workspace bucket.
type AgentChat struct {
	ChatID           string
	Name             string
	CreatedAtMs      int64
	Mode             string
	LatestRootBlobID string
	StoreDBPath      string

	// Best-effort preview fields, filled lazily.
	LastRole string
	LastText string
}

// GetCreatedAt returns the chat creation time, or the zero time when unknown.
func (c *AgentChat) GetCreatedAt() time.Time {
	if c.CreatedAtMs == 0 {
		return time.Time{}
	}
	return time.Unix(0, c.CreatedAtMs*int64(time.Millisecond))
}
