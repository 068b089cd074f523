package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/pkg/adapters/archive"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Manage archived document checkpoints",
	Long: `Save, list, verify and restore content-addressed checkpoints.
Each checkpoint is the compressed snapshot of one document revision,
stored under the hash of its encoded form.`,
}

var checkpointSaveCmd = &cobra.Command{
	Use:   "save <doc-id>",
	Short: "Archive the current revision of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, cfg, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		arc, err := openArchive(cfg)
		if err != nil {
			return err
		}
		defer arc.Close()

		doc, err := ws.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("loading '%s': %w", args[0], err)
		}
		cp, err := arc.Write(cmd.Context(), doc)
		if err != nil {
			return fmt.Errorf("archiving '%s': %w", args[0], err)
		}
		fmt.Printf("Checkpointed '%s' as %s (%d nodes, %d bytes)\n",
			args[0], cp.Hash[:12], cp.Nodes, cp.Size)
		return nil
	},
}

var checkpointLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List archived checkpoints, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		arc, err := openArchive(cfg)
		if err != nil {
			return err
		}
		defer arc.Close()

		checkpoints, err := arc.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing archive: %w", err)
		}
		if len(checkpoints) == 0 {
			fmt.Println("No checkpoints found.")
			return nil
		}
		for _, cp := range checkpoints {
			name := cp.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("%s  %-32s %4d nodes  %s\n",
				cp.Hash[:12], name, cp.Nodes, cp.SavedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var checkpointRestoreCmd = &cobra.Command{
	Use:   "restore <hash> <doc-id>",
	Short: "Restore a checkpoint into the store under the given id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, cfg, err := openWorkspace(cmd)
		if err != nil {
			return err
		}
		arc, err := openArchive(cfg)
		if err != nil {
			return err
		}
		defer arc.Close()

		hash, err := resolveHash(cmd, arc, args[0])
		if err != nil {
			return err
		}
		doc, err := arc.Load(cmd.Context(), hash)
		if err != nil {
			return fmt.Errorf("loading checkpoint: %w", err)
		}
		if err := ws.Store().Save(cmd.Context(), args[1], doc); err != nil {
			return fmt.Errorf("restoring into '%s': %w", args[1], err)
		}
		fmt.Printf("Restored %s into document '%s' (%d nodes)\n",
			hash[:12], args[1], doc.Root.Count())
		return nil
	},
}

var checkpointVerifyCmd = &cobra.Command{
	Use:   "verify <hash>",
	Short: "Check a checkpoint against its content address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		arc, err := openArchive(cfg)
		if err != nil {
			return err
		}
		defer arc.Close()

		hash, err := resolveHash(cmd, arc, args[0])
		if err != nil {
			return err
		}
		if err := arc.Verify(cmd.Context(), hash); err != nil {
			return fmt.Errorf("✗ %s: %w", hash[:12], err)
		}
		fmt.Printf("✓ %s\n", hash[:12])
		return nil
	},
}

// openArchive opens the configured archive, falling back to the workspace
// default directory when store.archive_dir is unset.
func openArchive(cfg config.Config) (*archive.Archive, error) {
	dir := cfg.Store.ArchiveDir
	if dir == "" {
		dir = filepath.Join(cfg.Workspace, ".espalier", "archive")
	}
	arc, err := archive.New(dir)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return arc, nil
}

// resolveHash expands an abbreviated content hash to the full one, erroring
// on ambiguity.
func resolveHash(cmd *cobra.Command, arc *archive.Archive, prefix string) (string, error) {
	checkpoints, err := arc.List(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("listing archive: %w", err)
	}
	var match string
	for _, cp := range checkpoints {
		if cp.Hash == prefix {
			return cp.Hash, nil
		}
		if len(prefix) >= 8 && len(prefix) < len(cp.Hash) && cp.Hash[:len(prefix)] == prefix {
			if match != "" {
				return "", fmt.Errorf("checkpoint prefix '%s' is ambiguous", prefix)
			}
			match = cp.Hash
		}
	}
	if match == "" {
		return "", fmt.Errorf("no checkpoint matches '%s'", prefix)
	}
	return match, nil
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointSaveCmd)
	checkpointCmd.AddCommand(checkpointLsCmd)
	checkpointCmd.AddCommand(checkpointRestoreCmd)
	checkpointCmd.AddCommand(checkpointVerifyCmd)
}
