package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier is a document tree editor for visual UI building",
	Long: `Espalier manages design documents: typed trees of pages, frames, text
and form controls, edited under structural placement rules with full
undo history, and exported as HTML, Markdown or Mermaid.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "espalier.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().String("workspace", "", "Directory holding document files (overrides the config)")
	rootCmd.PersistentFlags().String("store", "", "Persistence backend: file, memory, redis or sqlite (overrides the config)")
}
