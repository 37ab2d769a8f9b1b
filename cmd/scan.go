package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/inovacc/jenkinsfix/internal/security"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a file, directory or git history for secrets",
	Long: `Scan runs gitleaks with its default rules. Use it before a rewrite to see what
leaks, and after one to confirm nothing is left.

Examples:
  jenkinsfix scan Jenkinsfile
  jenkinsfix scan --history /path/to/repo`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("history", false, "Scan the git history of the repository at path")
}

func runScan(cmd *cobra.Command, args []string) error {
	history, _ := cmd.Flags().GetBool("history")

	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	absPath, err := expandPath(path)
	if err != nil {
		return err
	}

	root := absPath
	if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
		root = filepath.Dir(absPath)
	}

	scanner, err := security.NewLeakScanner(root)
	if err != nil {
		return err
	}

	var result *security.ScanResult
	if history {
		result, err = scanner.ScanHistory(cmd.Context(), absPath, security.HistoryOptions{AllRefs: true})
	} else {
		result, err = scanner.ScanPath(cmd.Context(), absPath)
	}

	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if result.HasLeaks {
		_, _ = fmt.Fprint(out, warnStyle.Render(security.FormatFindings(result.Findings)))
		return security.ErrLeaksFound
	}

	_, _ = fmt.Fprintf(out, "%s %s\n", successStyle.Render("No secrets found in"), result.ScannedPath)

	return nil
}
