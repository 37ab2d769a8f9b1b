package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/inovacc/jenkinsfix/internal/blobfilter"
	"github.com/inovacc/jenkinsfix/internal/rewrite"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree [dir]",
	Short: "Filter the Jenkinsfile of a checked out tree",
	Long: `Tree applies the Jenkinsfile rewrite to <dir>/Jenkinsfile (default: the current
directory). Only the Jenkinsfile at the root of the tree is considered.

jenkinsfix rewrite registers this command as the git filter-branch tree filter.
It can also be used directly:

  git filter-branch --tree-filter 'jenkinsfix tree --quiet' -- --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().Bool("quiet", false, "Do not print a summary")
	treeCmd.Flags().Bool("scan", false, "Scan the rewritten Jenkinsfile for secrets and log findings")
}

func runTree(cmd *cobra.Command, args []string) error {
	quiet, _ := cmd.Flags().GetBool("quiet")
	scan, _ := cmd.Flags().GetBool("scan")

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	meta := commitMetadata("")
	logger := slog.Default().With(
		slog.String("commit", meta["commit"]),
		slog.String("run_id", os.Getenv(rewrite.RunIDEnv)),
	)

	res, err := rewrite.FilterWorktree(dir, meta, blobfilter.New(logger))
	if err != nil {
		return err
	}

	if res.Changed && (scan || appConfig.Scan.Blobs) {
		data, err := os.ReadFile(filepath.Join(dir, blobfilter.TargetPath))
		if err != nil {
			return fmt.Errorf("failed to read rewritten Jenkinsfile: %w", err)
		}

		if err := scanBlob(logger, blobfilter.NewBlob(blobfilter.TargetPath, data)); err != nil {
			return err
		}
	}

	if !quiet {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), describeResult(res))
	}

	return nil
}
