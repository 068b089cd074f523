package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/presentation/tui"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <doc-id>",
	Short: "Generate output from a document tree",
	Long:  `Walks the document tree and emits generated source: a standalone HTML page, a Markdown outline, or a Mermaid diagram of the structure.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, _, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		preview, _ := cmd.Flags().GetBool("preview")
		if preview {
			format = "markdown"
		}

		out, err := ws.Generate(cmd.Context(), args[0], format)
		if err != nil {
			return fmt.Errorf("exporting '%s': %w", args[0], err)
		}
		if preview {
			rendered, err := tui.NewRenderer()(out)
			if err != nil {
				return fmt.Errorf("rendering preview: %w", err)
			}
			fmt.Print(rendered)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "html", "Output format: html, markdown or mermaid")
	exportCmd.Flags().Bool("preview", false, "Render the markdown outline in the terminal")
}
