// Package security detects secrets left in rewritten Jenkinsfiles and history.
package security

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/zricethezav/gitleaks/v8/cmd/scm"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	"github.com/zricethezav/gitleaks/v8/logging"
	"github.com/zricethezav/gitleaks/v8/report"
	"github.com/zricethezav/gitleaks/v8/sources"
)

// ErrLeaksFound is returned by callers that treat findings as a failure.
var ErrLeaksFound = errors.New("potential secrets found")

const (
	ignoreFileName = ".gitleaksignore"

	// redactPercent hides most of each secret in findings.
	redactPercent = 80

	// backupRefs is where git filter-branch keeps the pre-rewrite history.
	backupRefs = "refs/original/*"
)

// LeakScanner runs gitleaks with its default rules. Each scan uses a fresh
// detector, since a gitleaks detector accumulates findings across sources.
type LeakScanner struct {
	config     config.Config
	ignorePath string
}

// ScanResult contains the results of a leak scan
type ScanResult struct {
	Findings    []Finding
	HasLeaks    bool
	ScannedPath string
}

// Finding represents a detected secret
type Finding struct {
	RuleID      string
	Description string
	File        string
	Line        int
	Secret      string // Redacted
	Commit      string
	Author      string
	Date        string
}

// HistoryOptions selects which part of the history ScanHistory reads.
type HistoryOptions struct {
	// AllRefs scans every ref except the filter-branch backups. Otherwise
	// only branches and tags are scanned.
	AllRefs bool
	// Paths limits the scan to these paths; empty scans every file.
	Paths []string
}

// NewLeakScanner loads the default gitleaks rules. When root is not empty and
// holds a .gitleaksignore file, its fingerprints are honored.
func NewLeakScanner(root string) (*LeakScanner, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load gitleaks config: %w", err)
	}

	s := &LeakScanner{config: detector.Config}

	if root != "" {
		path := filepath.Join(root, ignoreFileName)
		if _, err := os.Stat(path); err == nil {
			s.ignorePath = path
		}
	}

	return s, nil
}

func (s *LeakScanner) newDetector() (*detect.Detector, error) {
	detector := detect.NewDetector(s.config)
	detector.Redact = redactPercent

	if s.ignorePath != "" {
		if err := detector.AddGitleaksIgnore(s.ignorePath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", s.ignorePath, err)
		}
	}

	return detector, nil
}

// ScanBytes scans in-memory content, such as a rewritten blob.
// name is reported as the finding's file.
func (s *LeakScanner) ScanBytes(name string, data []byte) (*ScanResult, error) {
	detector, err := s.newDetector()
	if err != nil {
		return nil, err
	}

	findings := detector.DetectBytes(data)
	for i := range findings {
		findings[i].File = name
	}

	return newScanResult(findings, name), nil
}

// ScanPath scans a file or every file below a directory.
func (s *LeakScanner) ScanPath(ctx context.Context, path string) (*ScanResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	detector, err := s.newDetector()
	if err != nil {
		return nil, err
	}

	findings, err := detector.DetectSource(ctx, &sources.Files{
		Path:            absPath,
		Config:          &detector.Config,
		Sema:            detector.Sema,
		MaxArchiveDepth: detector.MaxArchiveDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("scan of %s failed: %w", absPath, err)
	}

	return newScanResult(findings, absPath), nil
}

// ScanHistory scans the commits of the repository at repoPath. The backup
// refs left by git filter-branch are never read, so a rewritten history is
// judged on what remains reachable from its branches and tags.
func (s *LeakScanner) ScanHistory(ctx context.Context, repoPath string, opts HistoryOptions) (*ScanResult, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	detector, err := s.newDetector()
	if err != nil {
		return nil, err
	}

	gitCmd, err := sources.NewGitLogCmdContext(ctx, absPath, historyLogOpts(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to start git log: %w", err)
	}

	findings, err := detector.DetectSource(ctx, &sources.Git{
		Cmd:    gitCmd,
		Config: &detector.Config,
		// Finding links need a platform; scans here are local only.
		Remote:          sources.NewRemoteInfoContext(ctx, scm.NoPlatform, absPath),
		Sema:            detector.Sema,
		MaxArchiveDepth: detector.MaxArchiveDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("history scan of %s failed: %w", absPath, err)
	}

	return newScanResult(findings, absPath), nil
}

// historyLogOpts builds the git log options handed to gitleaks. gitleaks
// splits them on spaces, so paths containing spaces are not supported.
func historyLogOpts(opts HistoryOptions) string {
	args := []string{"--full-history", "--diff-filter=tuxdb"}

	if opts.AllRefs {
		args = append(args, "--exclude="+backupRefs, "--all")
	} else {
		args = append(args, "--branches", "--tags")
	}

	if len(opts.Paths) > 0 {
		args = append(args, "--")
		args = append(args, opts.Paths...)
	}

	return strings.Join(args, " ")
}

func newScanResult(findings []report.Finding, path string) *ScanResult {
	result := &ScanResult{
		ScannedPath: path,
		HasLeaks:    len(findings) > 0,
		Findings:    make([]Finding, 0, len(findings)),
	}

	for _, f := range findings {
		result.Findings = append(result.Findings, Finding{
			RuleID:      f.RuleID,
			Description: f.Description,
			File:        f.File,
			Line:        f.StartLine,
			Secret:      f.Secret, // Already redacted by detector
			Commit:      f.Commit,
			Author:      f.Author,
			Date:        f.Date,
		})
	}

	return result
}

// SetLogLevel maps the application log level onto the gitleaks logger.
// gitleaks progress messages only show up at debug level.
func SetLogLevel(level slog.Level) {
	logging.Logger = logging.Logger.Level(gitleaksLevel(level))
}

func gitleaksLevel(level slog.Level) zerolog.Level {
	switch {
	case level <= slog.LevelDebug:
		return zerolog.DebugLevel
	case level <= slog.LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// FormatFindings renders one line per finding, with commit and author when
// the finding comes from history.
func FormatFindings(findings []Finding) string {
	if len(findings) == 0 {
		return ""
	}

	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "\nFound %d potential secret(s):\n", len(findings))

	for _, f := range findings {
		_, _ = fmt.Fprintf(&sb, "  %s:%d  %s  %s", f.File, f.Line, f.RuleID, f.Secret)

		if f.Commit != "" {
			_, _ = fmt.Fprintf(&sb, "  commit %s", shortCommit(f.Commit))
			if f.Author != "" {
				_, _ = fmt.Fprintf(&sb, " by %s", f.Author)
			}
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

func shortCommit(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
