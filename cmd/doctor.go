package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/inovacc/jenkinsfix/internal/blobfilter"
	"github.com/inovacc/jenkinsfix/internal/git"
	"github.com/inovacc/jenkinsfix/internal/gitconfig"
	"github.com/inovacc/jenkinsfix/internal/rewrite"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check a repository before and after a rewrite",
	Long: `Doctor reports remotes whose URL embeds a credential, how many commits touch the
Jenkinsfile and whether the checked out Jenkinsfile still needs rewriting.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().String("repo", "", "Path to repository (default: current directory)")
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	repoPath, _ := cmd.Flags().GetString("repo")

	root, err := git.FindGitDir(displayPath(repoPath))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, headerStyle.Render("Repository: "+root))

	printRemoteWarnings(cmd, root)
	printBranchWarnings(cmd, root)

	count, err := rewrite.CountCommitsTouching(cmd.Context(), appConfig.Git.Path, root)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Commits touching %s: %d\n", blobfilter.TargetPath, count)

	state, err := worktreeState(root)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Checked out %s: %s\n", blobfilter.TargetPath, state)

	return nil
}

// printRemoteWarnings lists remotes that embed credentials. Failures to read
// the config are reported but never fatal.
func printRemoteWarnings(cmd *cobra.Command, repoPath string) {
	out := cmd.OutOrStdout()

	root, err := git.FindGitDir(displayPath(repoPath))
	if err != nil {
		return
	}

	cfg, err := gitconfig.Load(gitconfig.Path(root))
	if err != nil {
		_, _ = fmt.Fprintln(out, mutedStyle.Render("Could not read git config: "+err.Error()))
		return
	}

	findings := gitconfig.AuditRemotes(cfg)
	if len(findings) == 0 {
		_, _ = fmt.Fprintln(out, mutedStyle.Render("No remotes with embedded credentials."))
		return
	}

	_, _ = fmt.Fprintln(out, warnStyle.Render("Remotes with embedded credentials:"))
	for _, f := range findings {
		_, _ = fmt.Fprintf(out, "  %s  %s\n", f.Remote, f.URL)
	}
	_, _ = fmt.Fprintln(out, "  Rewriting history does not change remote URLs; update them with git remote set-url.")
}

// printBranchWarnings points out a local master branch, since rewritten
// Jenkinsfiles check out main.
func printBranchWarnings(cmd *cobra.Command, root string) {
	cfg, err := gitconfig.Load(gitconfig.Path(root))
	if err != nil {
		return
	}

	if upstream, ok := cfg.BranchUpstream("master"); ok {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (tracks %s); rewritten pipelines build main.\n",
			warnStyle.Render("Local branch master is configured"), upstream)
	}
}

// worktreeState describes whether the checked out Jenkinsfile still needs a rewrite.
func worktreeState(root string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, blobfilter.TargetPath))
	if err != nil {
		if os.IsNotExist(err) {
			return "absent", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", blobfilter.TargetPath, err)
	}

	blob := blobfilter.NewBlob(blobfilter.TargetPath, data)

	res, err := blobfilter.New(nil).Apply(blob, nil)
	if err != nil {
		return "", err
	}

	if res.Changed {
		return warnStyle.Render("needs rewrite") + " (" + describeChanges(res) + ")", nil
	}

	return successStyle.Render("clean"), nil
}
