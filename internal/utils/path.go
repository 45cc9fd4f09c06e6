package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

const appDirName = "tagserve"

// PathResolver finds the config file location and the vault root
type PathResolver struct {
	homeDir   string
	configDir string
}

// NewPathResolver creates a resolver for the current user
func NewPathResolver() (*PathResolver, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	configDir := getConfigDir(homeDir)
	log.Debugf("PathResolver initialized: home=%s, configDir=%s", homeDir, configDir)

	return &PathResolver{
		homeDir:   homeDir,
		configDir: configDir,
	}, nil
}

// getConfigDir returns the appropriate config directory for the platform
func getConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, ".config", appDirName)
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, appDirName)
		}
		return filepath.Join(homeDir, ".config", appDirName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appDirName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", appDirName)
	default:
		return filepath.Join(homeDir, "."+appDirName)
	}
}

// GetConfigPath returns the full path for a config file
// It ensures the config directory exists and handles read-only filesystem issues
func (pr *PathResolver) GetConfigPath(filename string) (string, error) {
	configPath := filepath.Join(pr.configDir, filename)
	if pr.ensureConfigDir(pr.configDir) {
		return configPath, nil
	}

	fallbackDirs := []string{
		filepath.Join(pr.homeDir, "."+appDirName),
		filepath.Join(os.TempDir(), appDirName),
	}
	for _, dir := range fallbackDirs {
		if pr.ensureConfigDir(dir) {
			path := filepath.Join(dir, filename)
			log.Warnf("Using fallback config location: %s", path)
			return path, nil
		}
	}

	return "", fmt.Errorf("no writable config directory for %s", filename)
}

// ensureConfigDir creates the directory if it doesn't exist and tests writability
func (pr *PathResolver) ensureConfigDir(dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Debugf("Cannot create config directory %s: %v", dir, err)
		return false
	}

	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		log.Debugf("Config directory %s is not writable: %v", dir, err)
		return false
	}
	os.Remove(testFile)
	return true
}

// ResolveVaultDir turns the requested vault path into an absolute directory.
// An empty request means the current working directory; "~/" expands to home.
func (pr *PathResolver) ResolveVaultDir(requested string) (string, error) {
	if requested == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		requested = cwd
	}
	if requested == "~" || strings.HasPrefix(requested, "~/") {
		requested = filepath.Join(pr.homeDir, strings.TrimPrefix(requested, "~"))
	}
	abs, err := filepath.Abs(requested)
	if err != nil {
		return "", err
	}
	if !IsDir(abs) {
		return "", errors.New("vault is not a directory: " + abs)
	}
	return abs, nil
}

// GetRuntimeInfo returns debug information about the current runtime environment
func (pr *PathResolver) GetRuntimeInfo() map[string]string {
	cwd, _ := os.Getwd()

	info := map[string]string{
		"current_dir": cwd,
		"home_dir":    pr.homeDir,
		"config_dir":  pr.configDir,
		"os":          runtime.GOOS,
		"arch":        runtime.GOARCH,
	}
	for _, envVar := range []string{"HOME", "XDG_CONFIG_HOME", "APPDATA"} {
		if value := os.Getenv(envVar); value != "" {
			info["env_"+strings.ToLower(envVar)] = value
		}
	}
	return info
}
