// Package rewrite drives history rewriting of the Jenkinsfile.
//
// The history walk itself is delegated to `git filter-branch`, which invokes
// `jenkinsfix tree` as its tree filter for every commit.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/inovacc/jenkinsfix/internal/blobfilter"
	"github.com/inovacc/jenkinsfix/internal/git"
)

// RunIDEnv carries the rewrite run ID to tree filter invocations.
const RunIDEnv = "JENKINSFIX_RUN_ID"

// ErrDirtyWorktree is returned when the repository has uncommitted changes.
var ErrDirtyWorktree = errors.New("repository has uncommitted changes")

// Options contains options for rewriting Jenkinsfile history.
type Options struct {
	// RepoPath is the path to the repository (uses current directory if empty)
	RepoPath string
	// GitPath is the git executable (resolved from PATH if empty)
	GitPath string
	// Executable is the jenkinsfix binary used as tree filter (os.Executable if empty)
	Executable string
	// AllRefs rewrites every ref (--all) instead of branches and tags only
	AllRefs bool
	// Env is appended to the environment of git and the tree filter
	Env []string
	// Logger receives progress records; nil disables logging
	Logger *slog.Logger
}

// Result contains the result of a rewrite operation.
type Result struct {
	// RunID identifies this rewrite in logs
	RunID string
	// CommitsRewritten is the number of commits that were rewritten
	CommitsRewritten int
	// TagsRewritten is the list of tags that were rewritten
	TagsRewritten []string
	// BranchesRewritten is the list of branches that were rewritten
	BranchesRewritten []string
}

// Rewrite rewrites the Jenkinsfile in every commit of the repository.
func Rewrite(ctx context.Context, opts Options) (*Result, error) {
	repoPath, err := resolveRepoPath(opts.RepoPath)
	if err != nil {
		return nil, err
	}

	exe := opts.Executable
	if exe == "" {
		exe, err = os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate executable: %w", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client := git.NewClientForRepo(opts.GitPath, repoPath)
	if !client.IsRepository(ctx) {
		return nil, fmt.Errorf("not a git repository: %s", repoPath)
	}

	clean, err := client.IsClean(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check working tree: %w", err)
	}

	if !clean {
		return nil, fmt.Errorf("%w: %s", ErrDirtyWorktree, repoPath)
	}

	runID := uuid.NewString()
	logger = logger.With(slog.String("run_id", runID), slog.String("repo", repoPath))

	client.Env = append([]string{
		"FILTER_BRANCH_SQUELCH_WARNING=1",
		RunIDEnv + "=" + runID,
	}, opts.Env...)

	args := buildFilterBranchArgs(exe, opts.AllRefs)
	logger.Info("rewriting history", slog.String("tree_filter", buildTreeFilter(exe)))

	output, err := client.Run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("git filter-branch failed: %w", err)
	}

	result := parseFilterBranchOutput(output)
	result.RunID = runID

	logger.Info("history rewritten",
		slog.Int("commits", result.CommitsRewritten),
		slog.Any("branches", result.BranchesRewritten),
		slog.Any("tags", result.TagsRewritten),
	)

	return result, nil
}

// CountCommitsTouching counts commits on any ref that modify the Jenkinsfile.
func CountCommitsTouching(ctx context.Context, gitPath, repoPath string) (int, error) {
	repoPath, err := resolveRepoPath(repoPath)
	if err != nil {
		return 0, err
	}

	client := git.NewClientForRepo(gitPath, repoPath)

	output, err := client.Output(ctx, "log", "--all", "--format=%H", "--", blobfilter.TargetPath)
	if err != nil {
		return 0, fmt.Errorf("failed to count commits: %w", err)
	}

	if output == "" {
		return 0, nil
	}

	return len(strings.Split(output, "\n")), nil
}

func resolveRepoPath(repoPath string) (string, error) {
	if repoPath != "" {
		return repoPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return cwd, nil
}

// buildFilterBranchArgs builds the git filter-branch invocation.
func buildFilterBranchArgs(exe string, allRefs bool) []string {
	args := []string{
		"filter-branch",
		"-f",
		"--tree-filter", buildTreeFilter(exe),
		"--tag-name-filter", "cat",
	}

	if allRefs {
		return append(args, "--", "--all")
	}

	return append(args, "--", "--branches", "--tags")
}

// buildTreeFilter creates the shell command git runs inside each checked out tree.
func buildTreeFilter(exe string) string {
	return shellQuote(exe) + " tree --quiet"
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// parseFilterBranchOutput parses the output of git filter-branch to extract statistics.
// Progress lines are separated by carriage returns, so both \r and \n split lines.
func parseFilterBranchOutput(output string) *Result {
	result := &Result{
		TagsRewritten:     []string{},
		BranchesRewritten: []string{},
	}

	lines := strings.FieldsFunc(output, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	for _, line := range lines {
		line = strings.TrimSpace(line)

		// Count rewritten commits from lines like "Rewrite abc123 (1/10)"
		if strings.HasPrefix(line, "Rewrite ") {
			result.CommitsRewritten++
		}

		if strings.HasPrefix(line, "Ref 'refs/heads/") && strings.Contains(line, "was rewritten") {
			if branch := extractRefName(line, "refs/heads/"); branch != "" {
				result.BranchesRewritten = append(result.BranchesRewritten, branch)
			}
		}

		if strings.HasPrefix(line, "Ref 'refs/tags/") && strings.Contains(line, "was rewritten") {
			if tag := extractRefName(line, "refs/tags/"); tag != "" {
				result.TagsRewritten = append(result.TagsRewritten, tag)
			}
		}
	}

	return result
}

// extractRefName extracts the ref name from a git filter-branch output line.
func extractRefName(line, prefix string) string {
	// Line format: "Ref 'refs/heads/main' was rewritten"
	start := strings.Index(line, prefix)
	if start == -1 {
		return ""
	}

	start += len(prefix)
	end := strings.Index(line[start:], "'")
	if end == -1 {
		return ""
	}

	return line[start : start+end]
}
