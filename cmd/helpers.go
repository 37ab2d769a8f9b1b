package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/inovacc/jenkinsfix/internal/blobfilter"
	"golang.org/x/term"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// promptConfirm asks the user for confirmation and returns true if they confirm
// prompt should include the question (e.g., "Proceed? [y/N]: ")
func promptConfirm(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprint(out, prompt)

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))

	return response == "y" || response == "yes"
}

// isTerminal reports whether r is an interactive terminal
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

// expandPath expands ~ to the user's home directory and returns an absolute path
func expandPath(path string) (string, error) {
	if len(path) == 0 {
		return "", fmt.Errorf("path is empty")
	}

	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}

		path = filepath.Join(home, path[1:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	return absPath, nil
}

// commitMetadata builds blob metadata, falling back to GIT_COMMIT which
// git filter-branch exports for every filter invocation.
func commitMetadata(commit string) blobfilter.Metadata {
	if commit == "" {
		commit = os.Getenv("GIT_COMMIT")
	}

	if commit == "" {
		return nil
	}

	return blobfilter.Metadata{"commit": commit}
}

// describeResult renders a one-line summary of a filter call.
func describeResult(res blobfilter.Result) string {
	switch {
	case !res.Matched:
		return "no Jenkinsfile"
	case !res.Changed:
		return "Jenkinsfile unchanged"
	default:
		return "Jenkinsfile rewritten: " + describeChanges(res)
	}
}

func describeChanges(res blobfilter.Result) string {
	return fmt.Sprintf("%d URL(s) sanitized, %d branch reference(s) renamed, %d credentialsId line(s) added",
		res.URLsSanitized, res.BranchesRenamed, res.CredentialsInjected)
}
