package rewrite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/inovacc/jenkinsfix/internal/blobfilter"
)

// FilterWorktree applies the blob filter to the Jenkinsfile at the root of dir.
// This is what `git filter-branch --tree-filter` runs for every commit.
// A missing or non-regular Jenkinsfile is left alone.
func FilterWorktree(dir string, meta blobfilter.Metadata, f *blobfilter.Filter) (blobfilter.Result, error) {
	path := filepath.Join(dir, blobfilter.TargetPath)

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return blobfilter.Result{}, nil
		}
		return blobfilter.Result{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return blobfilter.Result{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return blobfilter.Result{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	blob := blobfilter.NewBlob(blobfilter.TargetPath, data)

	res, err := f.Apply(blob, meta)
	if err != nil {
		return res, err
	}

	if !res.Changed {
		return res, nil
	}

	if err := os.WriteFile(path, blob.Data, info.Mode().Perm()); err != nil {
		return res, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return res, nil
}
