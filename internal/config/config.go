package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for lh.
type Config struct {
	WorkspaceRoot string        `toml:"workspace_root"`
	BaseDir       string        `toml:"base_dir"`
	LogDir        string        `toml:"log_dir"`
	LogLevel      string        `toml:"log_level"` // "debug", "info" (default), "warn" or "error"
	Separator     string        `toml:"separator"` // single character; "$" when empty
	Journal       JournalConfig `toml:"journal"`
	Watch         WatchConfig   `toml:"watch"`
}

// JournalConfig represents configuration for the activity journal.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type JournalConfig struct {
	Type    string `toml:"type"`               // "sqlite", "memory" or "none"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// WatchConfig holds settings for `lh watch`.
type WatchConfig struct {
	Ignore     []string `toml:"ignore"`
	DebounceMS int      `toml:"debounce_ms"` // quiet period before a write is archived; 500 when zero
}

// DefaultDebounceMS is used when watch.debounce_ms is unset.
const DefaultDebounceMS = 500

// NewConfig creates a new Config with the provided values and defaults below baseDir.
func NewConfig(workspaceRoot, baseDir string) *Config {
	return &Config{
		WorkspaceRoot: workspaceRoot,
		BaseDir:       baseDir,
		LogDir:        filepath.Join(baseDir, "log"),
		LogLevel:      "info",
		Separator:     "$",
		Journal: JournalConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "journal"),
		},
		Watch: WatchConfig{
			DebounceMS: DefaultDebounceMS,
		},
	}
}

// SeparatorRune returns the configured archive name separator.
func (c *Config) SeparatorRune() (rune, error) {
	if c.Separator == "" {
		return '$', nil
	}
	if utf8.RuneCountInString(c.Separator) != 1 {
		return 0, fmt.Errorf("separator must be a single character, got %q", c.Separator)
	}
	r, _ := utf8.DecodeRuneInString(c.Separator)
	if r == '/' || r == '\\' || strings.ContainsRune(`"<>|?*:`, r) {
		return 0, fmt.Errorf("separator %q is not allowed in file names", c.Separator)
	}
	return r, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if _, err := c.SeparatorRune(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative")
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault reads the config at path, falling back to NewConfig when the file does not exist.
func LoadOrDefault(path, workspaceRoot, baseDir string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewConfig(workspaceRoot, baseDir), nil
	}
	cfg, err := ReadFromFile(path)
	if err != nil {
		return nil, err
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = baseDir
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.BaseDir, "log")
	}
	if cfg.Journal.DataDir == "" && (cfg.Journal.Type == "" || cfg.Journal.Type == "sqlite") {
		cfg.Journal.DataDir = filepath.Join(cfg.BaseDir, "journal")
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = DefaultDebounceMS
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path, creating parent directories.
func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
