package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [glob]",
	Short: "Check document files for structural consistency",
	Long: `Reads every document file matching the glob (default: the workspace's
.espalier/documents directory), migrates old schema versions in memory and
reports any violation of the structural rules: non-Page children of the
Document root, stray Options, duplicate ids, payload mismatches.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		pattern := filepath.Join(cfg.Workspace, ".espalier", "documents", "**", "*.json")
		if len(args) > 0 {
			pattern = args[0]
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("bad glob %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			fmt.Printf("No document files match %s\n", pattern)
			return nil
		}

		broken := 0
		for _, path := range matches {
			violations, err := validateFile(path)
			switch {
			case err != nil:
				fmt.Printf("✗ %s: %v\n", path, err)
				broken++
			case len(violations) > 0:
				fmt.Printf("✗ %s\n", path)
				for _, v := range violations {
					fmt.Printf("    %s\n", v)
				}
				broken++
			default:
				fmt.Printf("✓ %s\n", path)
			}
		}

		if broken > 0 {
			return fmt.Errorf("%d of %d document(s) failed validation", broken, len(matches))
		}
		fmt.Printf("All %d document(s) are valid.\n", len(matches))
		return nil
	},
}

func validateFile(path string) ([]domain.Violation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := schema.Decode(data)
	if err != nil {
		return nil, err
	}
	return domain.ValidateDocument(doc), nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
