package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/aretw0/espalier/pkg/domain"
)

// editCmd represents the interactive editing session
var editCmd = &cobra.Command{
	Use:   "edit <doc-id>",
	Short: "Edit a document interactively",
	Long: `Opens an interactive editing session on a document: insert, move,
rename, style and remove nodes, with undo and redo, from a prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, _, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		docID := args[0]
		headless, _ := cmd.Flags().GetBool("headless")
		create, _ := cmd.Flags().GetBool("create")

		if create {
			if _, err := ws.Load(cmd.Context(), docID); errors.Is(err, domain.ErrDocumentNotFound) {
				if _, err := ws.Create(cmd.Context(), docID, docID); err != nil {
					return fmt.Errorf("creating '%s': %w", docID, err)
				}
			}
		}

		runner := espalier.NewRunner()
		runner.Input = os.Stdin
		runner.Output = os.Stdout
		runner.Headless = headless

		if !headless {
			tui.PrintBanner()
			runner.Renderer = tui.NewRenderer()
		}

		return runner.Run(cmd.Context(), ws, docID)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().Bool("headless", false, "Run without banner or prompts (strict IO)")
	editCmd.Flags().Bool("create", false, "Create the document first if it does not exist")
}
