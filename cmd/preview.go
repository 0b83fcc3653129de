package cmd

import (
	"fmt"

	"github.com/iksnae/agent-peek/internal"
	"github.com/spf13/cobra"
)

var previewChars int

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview <chat-id|store.db>",
	Short: "Show the last message of a chat",
	Long: `Print a one-message preview of a chat: the newest user or assistant
message, taken from the chat's latest root blob when the metadata names one,
otherwise from a bounded scan of the most recent blobs.`,
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
		chars := previewChars
		if chars == 0 {
			chars = cfg.PreviewChars
		}

		store := internal.NewStoreReader(storePath)
		extractor := internal.NewExtractor(store)

		var latestRootBlobID string
		if meta := store.ReadChatMeta(); meta != nil {
			latestRootBlobID = meta.LatestRootBlobID
			fmt.Println(headerStyle.Render(meta.Name))
		}

		role, text, ok := extractor.LastMessagePreview(latestRootBlobID)
		if !ok {
			fmt.Println(idStyle.Render("No preview available"))
			return nil
		}

		preview := internal.FormatMessagesPreview([]internal.Message{{Role: role, Text: text}}, chars)
		fmt.Println(preview)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().IntVar(&previewChars, "chars", 0, "Per-message character budget (0 uses the configured budget)")
}
