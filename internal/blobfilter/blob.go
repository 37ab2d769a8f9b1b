// Package blobfilter rewrites Jenkinsfile blobs while history is being rewritten.
//
// A history-rewriting driver calls Callback once per blob. Blobs whose path is
// not exactly "Jenkinsfile" pass through untouched.
package blobfilter

import (
	"bytes"
	"errors"
)

// TargetPath is the only blob path the filter rewrites.
const TargetPath = "Jenkinsfile"

// ErrNilBlob is returned when the driver hands over a nil blob.
var ErrNilBlob = errors.New("blobfilter: nil blob")

// Blob is one revision of a file as stored in history.
type Blob struct {
	Path []byte
	Data []byte
}

// NewBlob creates a blob for the given path and content.
func NewBlob(path string, data []byte) *Blob {
	return &Blob{Path: []byte(path), Data: data}
}

// Metadata accompanies a blob (commit id and similar). The filter never reads it;
// callers use it for their own logging.
type Metadata map[string]string

// IsTarget reports whether path is the Jenkinsfile at the repository root.
func IsTarget(path []byte) bool {
	return bytes.Equal(path, []byte(TargetPath))
}
