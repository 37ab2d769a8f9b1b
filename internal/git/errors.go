package git

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Common error messages from git
const (
	errMsgNotRepository = "not a git repository"
	errMsgDirtyTree     = "Cannot rewrite branches: You have unstaged changes"
)

// GitError represents a git command error
type GitError struct {
	ExitCode int
	Stderr   string
	Args     []string
	err      error
}

func (e *GitError) Error() string {
	if strings.TrimSpace(e.Stderr) == "" {
		return fmt.Errorf("git command failed: %w", e.err).Error()
	}
	return fmt.Sprintf("git command failed: %s", strings.TrimSpace(e.Stderr))
}

func (e *GitError) Unwrap() error {
	return e.err
}

// NewGitError creates a GitError from command output and error.
// When stderr is empty it is taken from the exec.ExitError, if any.
func NewGitError(args []string, stderr string, err error) *GitError {
	exitCode := -1

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
		if stderr == "" {
			stderr = string(exitErr.Stderr)
		}
	}

	return &GitError{
		ExitCode: exitCode,
		Stderr:   stderr,
		Args:     args,
		err:      err,
	}
}

// IsNotRepository checks if the error indicates not a git repository
func IsNotRepository(err error) bool {
	return containsError(err, errMsgNotRepository)
}

// IsDirtyTree checks if filter-branch refused to run on a dirty working tree
func IsDirtyTree(err error) bool {
	return containsError(err, errMsgDirtyTree)
}

// containsError checks if the error contains a specific message
func containsError(err error, msg string) bool {
	if err == nil {
		return false
	}

	var gitErr *GitError
	if errors.As(err, &gitErr) {
		return strings.Contains(strings.ToLower(gitErr.Stderr), strings.ToLower(msg))
	}

	return strings.Contains(strings.ToLower(err.Error()), strings.ToLower(msg))
}
