package app

import (
	"fmt"
	"os"
	"path/filepath"

	"lh-go/internal/fs"
	"lh-go/internal/lh"
)

// Environment variables read by LoadDefaults and ResolveWorkspace.
const (
	EnvConfigPath = "LH_CONFIG_PATH"
	EnvHome       = "LH_HOME"
	EnvWorkspace  = "LH_WORKSPACE"
)

// Defaults are the locations lh uses when the config file does not name them.
type Defaults struct {
	ConfigPath string
	BaseDir    string
}

// LoadDefaults resolves the config file and data directory.
//
//   - config: $LH_CONFIG_PATH, else $XDG_CONFIG_HOME/lh.toml, else ~/.config/lh.toml
//   - data:   $LH_HOME, else $XDG_DATA_HOME/lh, else ~/.local/share/lh
func LoadDefaults() (Defaults, error) {
	configPath, err := xdgPath(EnvConfigPath, "XDG_CONFIG_HOME", "lh.toml", ".config")
	if err != nil {
		return Defaults{}, err
	}
	baseDir, err := xdgPath(EnvHome, "XDG_DATA_HOME", "lh", ".local", "share")
	if err != nil {
		return Defaults{}, err
	}
	return Defaults{ConfigPath: configPath, BaseDir: baseDir}, nil
}

func xdgPath(override, xdgVar, name string, homeRel ...string) (string, error) {
	if path := os.Getenv(override); path != "" {
		return path, nil
	}
	if dir := os.Getenv(xdgVar); dir != "" {
		return filepath.Join(dir, name), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append(append([]string{homeDir}, homeRel...), name)...), nil
}

// ResolveWorkspace picks the workspace root in order: the explicit flag,
// $LH_WORKSPACE, the configured root, then the nearest workspace enclosing dir.
func ResolveWorkspace(flag, configured, dir string) string {
	for _, ws := range []string{flag, os.Getenv(EnvWorkspace), configured} {
		if ws != "" {
			return ws
		}
	}
	return FindWorkspace(dir)
}

// FindWorkspace walks up from dir to the first directory holding an archive
// root or an ignore file. dir itself is returned when none does, so the first
// save there starts a new workspace.
func FindWorkspace(dir string) string {
	start, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	osfs := fs.NewOSFileSystem()
	for d := start; ; {
		if osfs.IsDir(filepath.Join(d, lh.RepositoryFolder)) || osfs.IsFile(filepath.Join(d, fs.IgnoreFileName)) {
			return d
		}
		parent := filepath.Dir(d)
		if parent == d {
			return start
		}
		d = parent
	}
}
