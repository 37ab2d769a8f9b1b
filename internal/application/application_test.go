package application

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigPath(t *testing.T) {
	dir, err := GetApplicationDirectory()
	if err != nil {
		t.Skipf("no user config directory: %v", err)
	}

	assert.Equal(t, AppName, filepath.Base(dir))

	path, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), path)
}
