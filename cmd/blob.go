package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/inovacc/jenkinsfix/internal/blobfilter"
	"github.com/inovacc/jenkinsfix/internal/security"
	"github.com/spf13/cobra"
)

var blobCmd = &cobra.Command{
	Use:   "blob",
	Short: "Filter a single blob read from stdin",
	Long: `Blob reads one file revision from stdin, applies the Jenkinsfile rewrite when
--path is exactly "Jenkinsfile" and writes the result to stdout. Any other path
is copied through unchanged.

This is the per-blob callback for history rewriting drivers that pipe blob
contents through an external command.

Examples:
  git cat-file blob HEAD:Jenkinsfile | jenkinsfix blob --path Jenkinsfile
  jenkinsfix blob --path Jenkinsfile < Jenkinsfile > Jenkinsfile.new`,
	Args: cobra.NoArgs,
	RunE: runBlob,
}

func init() {
	rootCmd.AddCommand(blobCmd)

	blobCmd.Flags().String("path", blobfilter.TargetPath, "Repository path of the blob")
	blobCmd.Flags().String("commit", "", "Commit the blob belongs to, for logging (default: $GIT_COMMIT)")
	blobCmd.Flags().Bool("scan", false, "Scan the rewritten blob for secrets and log findings")
}

func runBlob(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("path")
	commit, _ := cmd.Flags().GetString("commit")
	scan, _ := cmd.Flags().GetBool("scan")

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read blob: %w", err)
	}

	meta := commitMetadata(commit)
	logger := slog.Default().With(slog.String("path", path), slog.String("commit", meta["commit"]))

	blob := blobfilter.NewBlob(path, data)

	res, err := blobfilter.New(logger).Apply(blob, meta)
	if err != nil {
		return err
	}

	if res.Changed && (scan || appConfig.Scan.Blobs) {
		if err := scanBlob(logger, blob); err != nil {
			return err
		}
	}

	if _, err := cmd.OutOrStdout().Write(blob.Data); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}

	return nil
}

// scanBlob logs secrets that survive the rewrite. Findings never fail the
// filter: the history walk must be able to complete.
func scanBlob(logger *slog.Logger, blob *blobfilter.Blob) error {
	scanner, err := security.NewLeakScanner("")
	if err != nil {
		return err
	}

	result, err := scanner.ScanBytes(string(blob.Path), blob.Data)
	if err != nil {
		return err
	}

	for _, f := range result.Findings {
		logger.Warn("secret remains after rewrite",
			slog.String("rule", f.RuleID),
			slog.Int("line", f.Line),
			slog.String("secret", f.Secret),
		)
	}

	return nil
}
