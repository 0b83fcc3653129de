package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/iksnae/agent-peek/internal"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
	exportAll    bool
	exportMax    int
	exportRoles  []string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <chat-id|store.db>",
	Short: "Export a chat to markdown or JSON",
	Long: `Write a chat's extracted messages to a file or stdout.

Formats:
  markdown   role-labeled sections (default)
  json       {"title", "messages": [{"role","text"}...]}`,
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
		if len(exportRoles) > 0 {
			roles = exportRoles
		}

		maxMessages := exportMax
		maxBlobs := cfg.RecentBlobWindow
		if exportAll {
			maxMessages = internal.NoLimit
			maxBlobs = internal.NoLimit
		}

		store := internal.NewStoreReader(storePath)
		messages := internal.NewExtractor(store).ExtractRecent(roles, maxMessages, maxBlobs)
		if len(messages) == 0 {
			return fmt.Errorf("no messages extracted from %s", storePath)
		}

		title := "Untitled"
		if meta := store.ReadChatMeta(); meta != nil {
			title = meta.Name
		}

		rendered, err := renderExport(title, messages, exportFormat)
		if err != nil {
			return err
		}

		if exportOutput == "" || exportOutput == "-" {
			fmt.Print(rendered)
			return nil
		}
		if err := os.WriteFile(exportOutput, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOutput, err)
		}
		fmt.Println(idStyle.Render(fmt.Sprintf("Exported %d message(s) to %s", len(messages), exportOutput)))
		return nil
	},
}

// renderExport serializes extracted messages in the requested format.
func renderExport(title string, messages []internal.Message, format string) (string, error) {
	switch format {
	case "markdown", "md":
		var b strings.Builder
		b.WriteString("# " + title + "\n")
		for _, m := range messages {
			b.WriteString("\n## " + internal.RoleLabel(m.Role) + "\n\n")
			b.WriteString(m.Text + "\n")
		}
		return b.String(), nil
	case "json":
		doc := struct {
			Title    string             `json:"title"`
			Messages []internal.Message `json:"messages"`
		}{Title: title, Messages: messages}
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode messages: %w", err)
		}
		return string(out) + "\n", nil
	default:
		return "", fmt.Errorf("unknown export format %q (expected markdown or json)", format)
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Export format: markdown or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export the full history")
	exportCmd.Flags().IntVarP(&exportMax, "max", "n", 50, "Maximum messages to export")
	exportCmd.Flags().StringSliceVar(&exportRoles, "role", nil, "Role allow-list (default from config)")
}
