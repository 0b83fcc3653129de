package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-peek/internal"
	"github.com/spf13/cobra"
)

var (
	inspectSectionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("62")).
				Bold(true).
				Underline(true)

	inspectOkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inspectWarnStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Bold(true)

	inspectValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <chat-id|store.db>",
	Short: "Low-level diagnostics for a chat store",
	Long: `Inspect a store.db without rendering its conversation: metadata rows,
blob counts, the content fingerprint used for cache validation, and scan
statistics from a trial extraction.

Useful when a chat lists but shows no messages, to tell apart an empty
store, a locked store, and a store whose blobs simply carry no message
objects.`,
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

		store := internal.NewStoreReader(storePath)
		fmt.Println(inspectSectionStyle.Render("Store"))
		fmt.Printf("  %s\n", inspectValueStyle.Render(storePath))

		count, err := store.CountBlobs()
		if err != nil {
			fmt.Printf("  %s %v\n", inspectWarnStyle.Render("Cannot read blobs table:"), err)
			return nil
		}
		fp, err := store.FetchFingerprint()
		if err != nil {
			fmt.Printf("  %s %v\n", inspectWarnStyle.Render("Cannot compute fingerprint:"), err)
			return nil
		}
		fmt.Printf("  Blobs: %s\n", inspectOkStyle.Render(fmt.Sprintf("%d", count)))
		fmt.Printf("  Fingerprint: max_seq=%d total_bytes=%d\n", fp.MaxSeq, fp.TotalBytes)
		fmt.Println()

		fmt.Println(inspectSectionStyle.Render("Metadata"))
		if meta := store.ReadChatMeta(); meta != nil {
			fmt.Printf("  Agent ID: %s\n", inspectValueStyle.Render(meta.AgentID))
			fmt.Printf("  Name: %s\n", meta.Name)
			if meta.Mode != "" {
				fmt.Printf("  Mode: %s\n", meta.Mode)
			}
			if meta.LatestRootBlobID != "" {
				fmt.Printf("  Latest root blob: %s\n", inspectValueStyle.Render(meta.LatestRootBlobID))
			}
			if !meta.GetCreatedAt().IsZero() {
				fmt.Printf("  Created: %s\n", meta.GetCreatedAt().Format("2006-01-02 15:04:05"))
			}
		} else {
			fmt.Println("  " + inspectWarnStyle.Render("No usable metadata (missing meta table or agentId)"))
		}
		fmt.Println()

		fmt.Println(inspectSectionStyle.Render("Trial extraction"))
		cfg := internal.LoadConfig(dirs.ConfigDir)
		attemptsBefore := internal.ParseAttemptTotal()
		rowsBefore := internal.BlobRowsReadTotal()
		extractor := internal.NewExtractorWithCache(store, nil)
		messages := extractor.ExtractRecent(cfg.Roles, 10, cfg.RecentBlobWindow)
		attempts := internal.ParseAttemptTotal() - attemptsBefore
		rowsRead := internal.BlobRowsReadTotal() - rowsBefore

		fmt.Printf("  Messages found: %s\n", inspectOkStyle.Render(fmt.Sprintf("%d", len(messages))))
		fmt.Printf("  Blob rows read: %d\n", rowsRead)
		fmt.Printf("  JSON parse attempts: %d\n", attempts)
		if len(messages) > 0 {
			last := messages[len(messages)-1]
			fmt.Printf("  Last: [%s] %s\n", last.Role, truncateLine(last.Text, 60))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
