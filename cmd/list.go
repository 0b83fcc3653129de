package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-peek/internal"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	modeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	workspaceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cursor-agent workspaces and chats",
	Long:  `List every workspace bucket under the chats root and the chats inside each, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dirs, err := resolveDirs()
		if err != nil {
			return fmt.Errorf("failed to resolve agent directories: %w", err)
		}

		workspaces, err := internal.ListWorkspaces(dirs.ChatsDir())
		if err != nil {
			fmt.Println(headerStyle.Render("No chats found"))
			internal.LogDebug("Chats root unavailable at %s: %v", dirs.ChatsDir(), err)
			return nil
		}
		if len(workspaces) == 0 {
			fmt.Println(headerStyle.Render("No chats found"))
			return nil
		}

		// Bucket names are one-way hashes; the only path we can map back is
		// our own working directory.
		if cwd, err := os.Getwd(); err == nil {
			cwdHashes := make(map[string]bool)
			for _, h := range internal.WorkspaceHashCandidates(cwd) {
				cwdHashes[h] = true
			}
			for i := range workspaces {
				if cwdHashes[workspaces[i].CwdHash] {
					workspaces[i].WorkspacePath = cwd
				}
			}
		}

		total := 0
		for _, ws := range workspaces {
			chats, err := internal.ListChats(ws)
			if err != nil {
				internal.LogWarn("Failed to list chats in %s: %v", ws.ChatsRoot, err)
				continue
			}
			if len(chats) == 0 {
				continue
			}
			total += len(chats)

			fmt.Println(workspaceStyle.Render(ws.DisplayName()))
			displayChats(chats)
			fmt.Println()
		}

		if total == 0 {
			fmt.Println(headerStyle.Render("No chats found"))
			return nil
		}
		fmt.Println(idStyle.Render(fmt.Sprintf("%d chat(s); use `agent-peek show <chat-id>` to read one", total)))
		return nil
	},
}

func displayChats(chats []internal.AgentChat) {
	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', 0)

	_, _ = fmt.Fprintln(w, "  "+titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Mode")+"\t"+titleStyle.Render("Created")+"\t")

	for _, chat := range chats {
		name := chat.Name
		if len(name) > 50 {
			name = name[:47] + "..."
		}

		mode := chat.Mode
		if mode == "" {
			mode = "—"
		}

		shortID := chat.ChatID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID),
			name,
			modeStyle.Render(mode),
			dateStyle.Render(formatChatDate(chat.GetCreatedAt())))
	}

	_ = w.Flush()
}

// formatChatDate renders a creation time relative to now, the way recent
// chats are easiest to scan.
func formatChatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

// truncateLine shortens a single-line preview for list rows.
func truncateLine(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimRight(string(runes[:max-1]), " ") + "…"
}

func init() {
	rootCmd.AddCommand(listCmd)
}
