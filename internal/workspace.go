package internal

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
)

// EnvConfigDir overrides the cursor-agent config directory (which defaults
// to ~/.cursor).
const EnvConfigDir = "CURSOR_AGENT_CONFIG_DIR"

// AgentDirs holds the resolved cursor-agent directories.
type AgentDirs struct {
	ConfigDir string
}

// ChatsDir returns the root directory holding per-workspace chat buckets.
func (d AgentDirs) ChatsDir() string {
	return filepath.Join(d.ConfigDir, "chats")
}

// GetAgentDirs resolves the cursor-agent config directory, honoring the
// CURSOR_AGENT_CONFIG_DIR override.
func GetAgentDirs() (AgentDirs, error) {
	if override := os.Getenv(EnvConfigDir); override != "" {
		return AgentDirs{ConfigDir: override}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AgentDirs{}, err
	}
	return AgentDirs{ConfigDir: filepath.Join(home, ".cursor")}, nil
}

// MD5Hex returns the lowercase hex md5 of s. cursor-agent buckets chats by
// md5(process.cwd()).
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// WorkspaceHashCandidates returns the bucket hashes a workspace path may
// appear under. process.cwd() is typically an absolute path but can vary
// with symlinks, so the resolved form is also tried.
func WorkspaceHashCandidates(workspacePath string) []string {
	candidates := []string{MD5Hex(workspacePath)}
	if resolved, err := filepath.EvalSymlinks(workspacePath); err == nil && resolved != workspacePath {
		candidates = append(candidates, MD5Hex(resolved))
	}
	return candidates
}

// IsMD5Hex reports whether s looks like an md5 bucket directory name.
func IsMD5Hex(s string) bool {
	if len(s) != 32 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// ListWorkspaces returns the workspace buckets under the chats root. Buckets
// are md5 hex directory names; anything else is ignored.
func ListWorkspaces(chatsRoot string) ([]AgentWorkspace, error) {
	entries, err := os.ReadDir(chatsRoot)
	if err != nil {
		return nil, err
	}

	var workspaces []AgentWorkspace
	for _, entry := range entries {
		if !entry.IsDir() || !IsMD5Hex(entry.Name()) {
			continue
		}
		workspaces = append(workspaces, AgentWorkspace{
			CwdHash:   entry.Name(),
			ChatsRoot: filepath.Join(chatsRoot, entry.Name()),
		})
	}
	return workspaces, nil
}

// ListChats returns the chats in a workspace bucket, newest first by
// creation time. Chat directories without a readable store.db metadata are
// still listed with defaults so a locked store does not hide a chat.
func ListChats(ws AgentWorkspace) ([]AgentChat, error) {
	entries, err := os.ReadDir(ws.ChatsRoot)
	if err != nil {
		return nil, err
	}

	var chats []AgentChat
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		storeDB := filepath.Join(ws.ChatsRoot, entry.Name(), "store.db")
		if _, err := os.Stat(storeDB); err != nil {
			continue
		}

		chat := AgentChat{
			ChatID:      entry.Name(),
			Name:        "Untitled",
			StoreDBPath: storeDB,
		}
		if meta := NewStoreReader(storeDB).ReadChatMeta(); meta != nil {
			chat.Name = meta.Name
			chat.Mode = meta.Mode
			chat.CreatedAtMs = meta.CreatedAtMs
			chat.LatestRootBlobID = meta.LatestRootBlobID
			if meta.AgentID != "" {
				chat.ChatID = meta.AgentID
			}
		}
		chats = append(chats, chat)
	}

	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].CreatedAtMs > chats[j].CreatedAtMs
	})
	return chats, nil
}

// FindStoreDBs walks the chats root and returns every store.db path found.
func FindStoreDBs(chatsRoot string) ([]string, error) {
	var storeDBs []string
	err := filepath.Walk(chatsRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() && info.Name() == "store.db" {
			storeDBs = append(storeDBs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return storeDBs, nil
}
