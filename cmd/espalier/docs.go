package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/presentation/tui"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage stored documents",
	Long:  `List, inspect, create and remove documents in the configured store.`,
}

var docsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, _, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		infos, err := ws.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}

		if len(infos) == 0 {
			fmt.Println("No documents found.")
			return nil
		}
		for _, info := range infos {
			name := info.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("%-24s %-32s %4d nodes  %s\n",
				info.ID, name, info.Nodes, info.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var docsNewCmd = &cobra.Command{
	Use:   "new <doc-id> [name]",
	Short: "Create a document with a root and one starter page",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, _, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		doc, err := ws.Create(cmd.Context(), args[0], name)
		if err != nil {
			return fmt.Errorf("creating '%s': %w", args[0], err)
		}
		fmt.Printf("Created document '%s' (%d nodes)\n", args[0], doc.Root.Count())
		return nil
	},
}

var docsInspectCmd = &cobra.Command{
	Use:   "inspect <doc-id>",
	Short: "Print the full document snapshot as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, _, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		doc, err := ws.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading '%s': %w", args[0], err)
		}

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var docsTreeCmd = &cobra.Command{
	Use:   "tree <doc-id>",
	Short: "Print the document outline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, _, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		doc, err := ws.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading '%s': %w", args[0], err)
		}
		showIDs, _ := cmd.Flags().GetBool("ids")
		tui.PrintTree(os.Stdout, doc, showIDs)
		return nil
	},
}

var docsRmCmd = &cobra.Command{
	Use:   "rm <doc-id>...",
	Short: "Remove one or more documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, _, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		hasError := false
		for _, id := range args {
			if err := ws.Delete(cmd.Context(), id); err != nil {
				fmt.Printf("Error removing '%s': %v\n", id, err)
				hasError = true
			} else {
				fmt.Printf("Removed document '%s'\n", id)
			}
		}
		if hasError {
			return fmt.Errorf("some documents could not be removed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsLsCmd)
	docsCmd.AddCommand(docsNewCmd)
	docsCmd.AddCommand(docsInspectCmd)
	docsCmd.AddCommand(docsTreeCmd)
	docsCmd.AddCommand(docsRmCmd)

	docsTreeCmd.Flags().Bool("ids", false, "Show node ids next to each entry")
}
