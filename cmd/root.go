package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/agent-peek/internal"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	configDir string
	version   string = "dev"
	commit    string = "unknown"
	date      string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agent-peek",
	Short: "Browse cursor-agent CLI chat history",
	Long: `agent-peek reads the chat stores written by the cursor-agent CLI
(~/.cursor/chats/<workspace-hash>/<chat-id>/store.db) and extracts the
human-readable conversation out of their binary blobs.

The stores are opened strictly read-only; a store that is missing or
momentarily locked by cursor-agent simply shows up as having no messages.

Quick Start:
  agent-peek list                 # List workspaces and chats
  agent-peek show <chat-id>       # Show the most recent messages of a chat
  agent-peek preview <chat-id>    # Show the last message only
  agent-peek inspect <store.db>   # Low-level store diagnostics`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveDirs returns the agent directories, honoring --config-dir.
func resolveDirs() (internal.AgentDirs, error) {
	if configDir != "" {
		return internal.AgentDirs{ConfigDir: configDir}, nil
	}
	return internal.GetAgentDirs()
}

// findChatStore resolves a chat argument to a store.db path: either a direct
// path to a store.db file, or a chat id (full or unambiguous prefix) searched
// across every workspace bucket.
func findChatStore(dirs internal.AgentDirs, arg string) (string, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return arg, nil
	}

	workspaces, err := internal.ListWorkspaces(dirs.ChatsDir())
	if err != nil {
		return "", fmt.Errorf("failed to list workspaces under %s: %w", dirs.ChatsDir(), err)
	}

	var matches []internal.AgentChat
	for _, ws := range workspaces {
		chats, err := internal.ListChats(ws)
		if err != nil {
			internal.LogWarn("Failed to list chats in %s: %v", ws.ChatsRoot, err)
			continue
		}
		for _, chat := range chats {
			if chat.ChatID == arg {
				return chat.StoreDBPath, nil
			}
			if len(arg) >= 4 && len(chat.ChatID) >= len(arg) && chat.ChatID[:len(arg)] == arg {
				matches = append(matches, chat)
			}
		}
	}

	switch len(matches) {
	case 0:
		// Buckets with non-standard names are invisible to the workspace
		// listing; a full walk still reaches their chats by directory name.
		if stores, walkErr := internal.FindStoreDBs(dirs.ChatsDir()); walkErr == nil {
			var found []string
			for _, p := range stores {
				dirName := filepath.Base(filepath.Dir(p))
				if dirName == arg || (len(arg) >= 4 && strings.HasPrefix(dirName, arg)) {
					found = append(found, p)
				}
			}
			if len(found) == 1 {
				return found[0], nil
			}
			if len(found) > 1 {
				return "", fmt.Errorf("%q is ambiguous (%d chats match); use the full chat id", arg, len(found))
			}
		}
		return "", fmt.Errorf("no chat matches %q", arg)
	case 1:
		return matches[0].StoreDBPath, nil
	default:
		return "", fmt.Errorf("%q is ambiguous (%d chats match); use the full chat id", arg, len(matches))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "cursor-agent config directory (default ~/.cursor, or $CURSOR_AGENT_CONFIG_DIR)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
