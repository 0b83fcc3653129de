package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-peek/internal"
	"github.com/spf13/cobra"
)

var (
	showMax       int
	showBlobs     int
	showAll       bool
	showFromStart bool
	showRoles     []string
)

var (
	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <chat-id|store.db>",
	Short: "Show messages from a chat",
	Long: `Display extracted messages from a chat's store.db.

By default the most recent messages are shown in chronological order.
--from-start reads from the true beginning of the conversation instead,
which stays cheap even against very large stores. --all extracts the whole
history (cached per store until the store changes).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dirs, err := resolveDirs()
		if err != nil {
			return fmt.Errorf("failed to resolve agent directories: %w", err)
		}
		storePath, err := findChatStore(dirs, args[0])
		if err != nil {
			return err
		}

		cfg := internal.LoadConfig(dirs.ConfigDir)
		roles := cfg.Roles
		if len(showRoles) > 0 {
			roles = showRoles
		}

		maxMessages := showMax
		maxBlobs := showBlobs
		if maxBlobs == 0 {
			maxBlobs = cfg.RecentBlobWindow
		}
		if showAll {
			maxMessages = internal.NoLimit
			maxBlobs = internal.NoLimit
		}

		extractor := internal.NewExtractor(internal.NewStoreReader(storePath))
		var messages []internal.Message
		if showFromStart {
			messages = extractor.ExtractInitial(roles, maxMessages, maxBlobs)
		} else {
			messages = extractor.ExtractRecent(roles, maxMessages, maxBlobs)
		}

		if len(messages) == 0 {
			fmt.Println(idStyle.Render("No messages found (store may be empty, locked, or not a cursor-agent store)"))
			return nil
		}

		if meta := internal.NewStoreReader(storePath).ReadChatMeta(); meta != nil {
			fmt.Println(headerStyle.Render(meta.Name))
			fmt.Println()
		}
		for _, msg := range messages {
			fmt.Println(styleRoleLabel(msg.Role))
			fmt.Println(messageContentStyle.Render(msg.Text))
			fmt.Println()
		}
		return nil
	},
}

func styleRoleLabel(role string) string {
	label := internal.RoleLabel(role) + ":"
	switch role {
	case "user":
		return userMessageStyle.Render(label)
	case "assistant":
		return assistantMessageStyle.Render(label)
	default:
		return label
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&showMax, "max", "n", 10, "Maximum messages to show")
	showCmd.Flags().IntVar(&showBlobs, "blobs", 0, "Maximum blobs to scan (0 uses the configured window)")
	showCmd.Flags().BoolVar(&showAll, "all", false, "Extract the full history (uses the process cache)")
	showCmd.Flags().BoolVar(&showFromStart, "from-start", false, "Read from the beginning of the conversation")
	showCmd.Flags().StringSliceVar(&showRoles, "role", nil, "Role allow-list (default from config: user,assistant)")
}
