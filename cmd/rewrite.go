package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/inovacc/jenkinsfix/internal/blobfilter"
	"github.com/inovacc/jenkinsfix/internal/config"
	"github.com/inovacc/jenkinsfix/internal/git"
	"github.com/inovacc/jenkinsfix/internal/rewrite"
	"github.com/inovacc/jenkinsfix/internal/security"
	"github.com/spf13/cobra"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite the Jenkinsfile across the whole git history",
	Long: `Rewrite runs git filter-branch over every branch and tag, with
"jenkinsfix tree" as the tree filter, so that each historical Jenkinsfile is
sanitized.

WARNING: This rewrites git history and requires a force push to update remote.
All collaborators will need to re-clone or rebase their work.

Examples:
  # Rewrite the repository in the current directory
  jenkinsfix rewrite

  # Rewrite every ref, without prompting, then scan history with gitleaks
  jenkinsfix rewrite --repo /path/to/repo --all --force --verify`,
	Args: cobra.NoArgs,
	RunE: runRewrite,
}

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().String("repo", "", "Path to repository (default: current directory)")
	rewriteCmd.Flags().Bool("all", false, "Rewrite every ref instead of branches and tags")
	rewriteCmd.Flags().Bool("force", false, "Skip confirmation prompt")
	rewriteCmd.Flags().Bool("verify", true, "Scan the rewritten history for secrets (default from config)")
}

func runRewrite(cmd *cobra.Command, _ []string) error {
	repoPath, _ := cmd.Flags().GetString("repo")
	allRefs, _ := cmd.Flags().GetBool("all")
	force, _ := cmd.Flags().GetBool("force")

	verify := appConfig.Scan.Verify
	if cmd.Flags().Changed("verify") {
		verify, _ = cmd.Flags().GetBool("verify")
	}

	if repoPath != "" {
		expanded, err := expandPath(repoPath)
		if err != nil {
			return err
		}
		repoPath = expanded
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	count, err := rewrite.CountCommitsTouching(ctx, appConfig.Git.Path, repoPath)
	if err != nil {
		if git.IsNotRepository(err) {
			return fmt.Errorf("not a git repository: %s", displayPath(repoPath))
		}
		return err
	}

	if count == 0 {
		_, _ = fmt.Fprintf(out, "No commits touch %s.\n", blobfilter.TargetPath)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Found %d commit(s) touching %s\n", count, blobfilter.TargetPath)
	printRemoteWarnings(cmd, repoPath)

	if !force {
		if !isTerminal(cmd.InOrStdin()) {
			return errors.New("refusing to rewrite history without confirmation; pass --force")
		}

		_, _ = fmt.Fprintln(out, warnStyle.Render("\nWARNING: This operation rewrites git history and cannot be undone."))
		_, _ = fmt.Fprintln(out, "You will need to force push after this operation.")

		if !promptConfirm(cmd.InOrStdin(), out, "\nProceed? [y/N]: ") {
			_, _ = fmt.Fprintln(out, "Operation cancelled.")
			return nil
		}
	}

	env, err := childEnv()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "\nRewriting history...")

	result, err := rewrite.Rewrite(ctx, rewrite.Options{
		RepoPath: repoPath,
		GitPath:  appConfig.Git.Path,
		AllRefs:  allRefs,
		Env:      env,
		Logger:   slog.Default(),
	})
	if err != nil {
		if git.IsDirtyTree(err) || errors.Is(err, rewrite.ErrDirtyWorktree) {
			return fmt.Errorf("%w\nCommit or stash your changes first", err)
		}
		return err
	}

	_, _ = fmt.Fprintln(out, successStyle.Render("\nHistory rewritten successfully!"))
	_, _ = fmt.Fprintf(out, "  Run ID: %s\n", result.RunID)
	_, _ = fmt.Fprintf(out, "  Commits processed: %d\n", result.CommitsRewritten)

	if len(result.BranchesRewritten) > 0 {
		_, _ = fmt.Fprintf(out, "  Branches rewritten: %s\n", strings.Join(result.BranchesRewritten, ", "))
	}

	if len(result.TagsRewritten) > 0 {
		_, _ = fmt.Fprintf(out, "  Tags rewritten: %s\n", strings.Join(result.TagsRewritten, ", "))
	}

	if verify {
		if err := verifyHistory(cmd, repoPath, allRefs); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Review the changes: git log -p -- Jenkinsfile")
	_, _ = fmt.Fprintln(out, "  2. Drop the backup refs: git for-each-ref --format='%(refname)' refs/original/ | xargs -n 1 git update-ref -d")
	_, _ = fmt.Fprintln(out, "  3. Force push to remote: git push --force --all && git push --force --tags")

	return nil
}

// childEnv forwards the effective logging settings and config file to tree
// filter processes.
func childEnv() ([]string, error) {
	var env []string

	if level := firstNonEmpty(flagLogLevel, appConfig.Log.Level); level != "" {
		env = append(env, "JENKINSFIX_LOG_LEVEL="+level)
	}

	if format := firstNonEmpty(flagLogFormat, appConfig.Log.Format); format != "" {
		env = append(env, "JENKINSFIX_LOG_FORMAT="+format)
	}

	// Tree filters run inside .git-rewrite/t, so relative paths would not resolve.
	if appConfig.Path != "" {
		path, err := filepath.Abs(appConfig.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
		env = append(env, config.PathEnvKey+"="+path)
	}

	return env, nil
}

// verifyHistory scans the Jenkinsfile history reachable from the rewritten
// refs. The filter-branch backups still hold the old content and are skipped.
func verifyHistory(cmd *cobra.Command, repoPath string, allRefs bool) error {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "\nScanning rewritten history for secrets...")

	scanner, err := security.NewLeakScanner(displayPath(repoPath))
	if err != nil {
		return err
	}

	result, err := scanner.ScanHistory(cmd.Context(), displayPath(repoPath), security.HistoryOptions{
		AllRefs: allRefs,
		Paths:   []string{blobfilter.TargetPath},
	})
	if err != nil {
		return err
	}

	if result.HasLeaks {
		_, _ = fmt.Fprint(out, warnStyle.Render(security.FormatFindings(result.Findings)))
		return security.ErrLeaksFound
	}

	_, _ = fmt.Fprintln(out, successStyle.Render("No secrets found in history."))

	return nil
}

func displayPath(repoPath string) string {
	if repoPath == "" {
		return "."
	}
	return repoPath
}
