package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindGitDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindGitDir(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindGitDirMissing(t *testing.T) {
	_, err := FindGitDir(t.TempDir())
	assert.Error(t, err)
}

func TestClientAgainstRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	ctx := context.Background()
	dir := t.TempDir()

	c := NewClientForRepo("", dir)
	assert.False(t, c.IsRepository(ctx))

	_, err := c.Run(ctx, "init", "-q")
	require.NoError(t, err)
	assert.True(t, c.IsRepository(ctx))

	clean, err := c.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Jenkinsfile"), []byte("x"), 0o644))

	clean, err = c.IsClean(ctx)
	require.NoError(t, err)
	assert.False(t, clean)

	_, err = c.Run(ctx, "remote", "add", "origin", "https://example.com/repo.git")
	require.NoError(t, err)

	url, err := c.Output(ctx, "remote", "get-url", "origin")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/repo.git", url)

	_, err = c.Output(ctx, "remote", "get-url", "missing")
	var gitErr *GitError
	require.ErrorAs(t, err, &gitErr)
	assert.NotEmpty(t, gitErr.Stderr)
}
