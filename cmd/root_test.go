package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/agent-peek/internal"
	"github.com/iksnae/agent-peek/testutil"
)

// chatTree builds <configDir>/chats/<bucket>/<dir>/store.db fixtures with the
// given agent ids and returns the config dir and a path per agent id.
func chatTree(t *testing.T, agentIDs ...string) (internal.AgentDirs, map[string]string) {
	t.Helper()
	configDir := testutil.CreateTempDir(t)
	bucket := filepath.Join(configDir, "chats", internal.MD5Hex("/ws/project"))

	paths := make(map[string]string, len(agentIDs))
	for i, id := range agentIDs {
		chatDir := filepath.Join(bucket, id)
		if err := os.MkdirAll(chatDir, 0o755); err != nil {
			t.Fatal(err)
		}
		dbPath := testutil.CreateStoreDB(t, chatDir)
		testutil.SetHexMeta(t, dbPath, map[string]interface{}{
			"agentId":   id,
			"name":      "Chat " + id,
			"createdAt": float64(1000 * (i + 1)),
		})
		paths[id] = dbPath
	}
	return internal.AgentDirs{ConfigDir: configDir}, paths
}

func TestFindChatStore_DirectPath(t *testing.T) {
	dirs, paths := chatTree(t, "agent-aaaa-1111")

	got, err := findChatStore(dirs, paths["agent-aaaa-1111"])
	if err != nil {
		t.Fatalf("findChatStore: %v", err)
	}
	if got != paths["agent-aaaa-1111"] {
		t.Errorf("resolved %q, want direct path", got)
	}
}

func TestFindChatStore_ExactID(t *testing.T) {
	dirs, paths := chatTree(t, "agent-aaaa-1111", "agent-bbbb-2222")

	got, err := findChatStore(dirs, "agent-bbbb-2222")
	if err != nil {
		t.Fatalf("findChatStore: %v", err)
	}
	if got != paths["agent-bbbb-2222"] {
		t.Errorf("resolved %q, want %q", got, paths["agent-bbbb-2222"])
	}
}

func TestFindChatStore_Prefix(t *testing.T) {
	dirs, paths := chatTree(t, "agent-aaaa-1111", "agent-bbbb-2222")

	got, err := findChatStore(dirs, "agent-bbbb")
	if err != nil {
		t.Fatalf("findChatStore: %v", err)
	}
	if got != paths["agent-bbbb-2222"] {
		t.Errorf("resolved %q, want %q", got, paths["agent-bbbb-2222"])
	}
}

func TestFindChatStore_AmbiguousPrefix(t *testing.T) {
	dirs, _ := chatTree(t, "agent-aaaa-1111", "agent-aaaa-2222")

	_, err := findChatStore(dirs, "agent-aaaa")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("err = %v, want ambiguity error", err)
	}
}

func TestFindChatStore_ShortPrefixRejected(t *testing.T) {
	dirs, _ := chatTree(t, "agent-aaaa-1111")

	// Prefixes under four characters never match.
	if _, err := findChatStore(dirs, "age"); err == nil {
		t.Error("three-character prefix resolved, want error")
	}
}

func TestFindChatStore_NonStandardBucket(t *testing.T) {
	dirs, _ := chatTree(t, "agent-aaaa-1111")

	// A chat under a bucket that is not an md5 name is invisible to the
	// workspace listing but still resolvable by directory name.
	chatDir := filepath.Join(dirs.ConfigDir, "chats", "custom-bucket", "stray-chat-7777")
	if err := os.MkdirAll(chatDir, 0o755); err != nil {
		t.Fatal(err)
	}
	dbPath := testutil.CreateStoreDB(t, chatDir)

	got, err := findChatStore(dirs, "stray-chat-7777")
	if err != nil {
		t.Fatalf("findChatStore: %v", err)
	}
	if got != dbPath {
		t.Errorf("resolved %q, want %q", got, dbPath)
	}

	got, err = findChatStore(dirs, "stray-chat")
	if err != nil {
		t.Fatalf("findChatStore by prefix: %v", err)
	}
	if got != dbPath {
		t.Errorf("prefix resolved %q, want %q", got, dbPath)
	}
}

func TestFindChatStore_NoMatch(t *testing.T) {
	dirs, _ := chatTree(t, "agent-aaaa-1111")

	if _, err := findChatStore(dirs, "agent-zzzz"); err == nil {
		t.Error("unknown id resolved, want error")
	}
}

func TestFormatChatDate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"zero time", time.Time{}, "—"},
		{"an hour ago", now.Add(-time.Hour), now.Add(-time.Hour).Format("Today 15:04")},
		{"three days ago", now.Add(-3 * 24 * time.Hour), now.Add(-3 * 24 * time.Hour).Format("Mon 15:04")},
		{"last month", now.Add(-40 * 24 * time.Hour), now.Add(-40 * 24 * time.Hour).Format("Jan 02 15:04")},
		{"years ago", now.Add(-800 * 24 * time.Hour), now.Add(-800 * 24 * time.Hour).Format("2006-01-02")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatChatDate(tt.in); got != tt.want {
				t.Errorf("formatChatDate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short stays", "hello", 10, "hello"},
		{"long truncates", "hello wide world", 10, "hello wid…"},
		{"newlines flattened", "line1\nline2", 20, "line1 line2"},
		{"trailing space trimmed before ellipsis", "hello     world", 8, "hello…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateLine(tt.in, tt.max); got != tt.want {
				t.Errorf("truncateLine(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
