// Package git provides a thin client around the git executable.
package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Client wraps git operations for a single repository
type Client struct {
	GitPath string   // Path to git executable
	RepoDir string   // Repository directory
	Env     []string // Appended to the inherited environment
}

// NewClient creates a new git client. An empty gitPath is resolved from PATH.
func NewClient(gitPath string) *Client {
	if gitPath == "" {
		gitPath, _ = exec.LookPath("git")
	}

	if gitPath == "" {
		gitPath = "git"
	}

	return &Client{GitPath: gitPath}
}

// NewClientForRepo creates a client for a specific repository
func NewClientForRepo(gitPath, repoDir string) *Client {
	c := NewClient(gitPath)
	c.RepoDir = repoDir
	return c
}

// Command creates a git command.
// Note: Do not set Stdout/Stderr if you plan to use CombinedOutput()
func (c *Client) Command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.GitPath, args...)

	if c.RepoDir != "" {
		cmd.Dir = c.RepoDir
	}

	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	return cmd
}

// Run executes a git command and returns its combined output.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	output, err := c.Command(ctx, args...).CombinedOutput()
	if err != nil {
		return string(output), NewGitError(args, string(output), err)
	}

	return string(output), nil
}

// Output executes a git command and returns its trimmed stdout.
func (c *Client) Output(ctx context.Context, args ...string) (string, error) {
	output, err := c.Command(ctx, args...).Output()
	if err != nil {
		return "", NewGitError(args, "", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// IsRepository checks if the client directory is a git repository
func (c *Client) IsRepository(ctx context.Context) bool {
	cmd := c.Command(ctx, "rev-parse", "--git-dir")
	return cmd.Run() == nil
}

// IsClean reports whether the working tree has no uncommitted changes.
func (c *Client) IsClean(ctx context.Context) (bool, error) {
	status, err := c.Output(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}

	return status == "", nil
}

// FindGitDir finds the repository root containing a .git directory
func FindGitDir(startPath string) (string, error) {
	current, err := filepath.Abs(startPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	for {
		gitDir := filepath.Join(current, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("not a git repository (or any parent)")
		}
		current = parent
	}
}
