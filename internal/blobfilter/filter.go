package blobfilter

import (
	"bytes"
	"log/slog"
)

// Result describes what a single filter call did.
type Result struct {
	// Matched is true when the blob path was the Jenkinsfile.
	Matched bool
	// Changed is true when the blob content was modified.
	Changed bool

	URLsSanitized       int
	BranchesRenamed     int
	CredentialsInjected int
}

// Filter applies the Jenkinsfile rewrites and optionally logs what changed.
// The zero value is ready to use.
type Filter struct {
	Logger *slog.Logger
}

// New creates a filter that logs to logger. A nil logger disables logging.
func New(logger *slog.Logger) *Filter {
	return &Filter{Logger: logger}
}

// Apply rewrites blob.Data in place when blob.Path is the Jenkinsfile.
func (f *Filter) Apply(blob *Blob, _ Metadata) (Result, error) {
	if blob == nil {
		return Result{}, ErrNilBlob
	}

	if !IsTarget(blob.Path) {
		return Result{}, nil
	}

	out, res := transform(blob.Data)
	res.Matched = true
	res.Changed = !bytes.Equal(out, blob.Data)
	blob.Data = out

	if f != nil && f.Logger != nil && res.Changed {
		f.Logger.Debug("jenkinsfile rewritten",
			slog.Int("urls_sanitized", res.URLsSanitized),
			slog.Int("branches_renamed", res.BranchesRenamed),
			slog.Int("credentials_injected", res.CredentialsInjected),
		)
	}

	return res, nil
}

// Callback is the per-blob entry point for history-rewriting drivers.
// Metadata is accepted for the driver contract and otherwise ignored.
func Callback(blob *Blob, meta Metadata) error {
	_, err := (*Filter)(nil).Apply(blob, meta)
	return err
}
