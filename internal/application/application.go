package application

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	// AppName is the application name used for directories and identification
	AppName = "jenkinsfix"

	// ConfigFileName is the name of the optional configuration file
	ConfigFileName = "config.ini"

	// EnvPrefix prefixes every environment variable the tool reads
	EnvPrefix = "JENKINSFIX_"
)

// Version is set at build time with -ldflags "-X .../application.Version=..."
var Version = "dev"

var (
	once   sync.Once
	appDir string
	errDir error
)

// GetApplicationDirectory returns the jenkinsfix configuration directory path.
// Linux: ~/.config/jenkinsfix (via os.UserConfigDir)
// Windows: C:\Users\{username}\AppData\Local\jenkinsfix (via os.UserCacheDir)
func GetApplicationDirectory() (string, error) {
	once.Do(lazyLoad)

	if errDir != nil {
		return "", errDir
	}

	return appDir, nil
}

// DefaultConfigPath returns the configuration file inside the application directory.
func DefaultConfigPath() (string, error) {
	dir, err := GetApplicationDirectory()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, ConfigFileName), nil
}

func lazyLoad() {
	var (
		baseDir string
		err     error
	)

	switch runtime.GOOS {
	case "windows":
		baseDir, err = os.UserCacheDir()
	default:
		baseDir, err = os.UserConfigDir()
	}

	if err != nil {
		errDir = fmt.Errorf("failed to get config directory: %w", err)
		return
	}

	appDir = filepath.Join(baseDir, AppName)
}
