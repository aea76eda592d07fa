package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/mdindex/internal/glob"
	"github.com/Aman-CERP/mdindex/internal/kind"
)

const (
	// ProjectFileName is the project configuration file in the workspace root.
	ProjectFileName = ".mdindex.yaml"
	// ProjectFileNameAlt is accepted when ProjectFileName is absent.
	ProjectFileNameAlt = ".mdindex.yml"
	// DataDirName holds the index database and lock file.
	DataDirName = ".mdindex"
)

// Config represents the complete mdindex configuration.
type Config struct {
	Kinds    []kind.Definition `yaml:"kinds" json:"kinds"`
	Rules    []kind.Rule       `yaml:"rules" json:"rules"`
	Paths    PathsConfig       `yaml:"paths" json:"paths"`
	Watch    WatchConfig       `yaml:"watch" json:"watch"`
	Store    StoreConfig       `yaml:"store" json:"store"`
	Index    IndexConfig       `yaml:"index" json:"index"`
	LogLevel string            `yaml:"log_level" json:"log_level"`
}

// Workspace is the part of the configuration that shapes the index itself.
type Workspace struct {
	Kinds []kind.Definition
	Rules []kind.Rule
}

// PathsConfig configures which files are documents.
type PathsConfig struct {
	// Exclude holds doublestar patterns relative to the workspace root.
	Exclude []string `yaml:"exclude" json:"exclude"`
	// Extensions lists the file extensions treated as documents.
	Extensions []string `yaml:"extensions" json:"extensions"`
}

// WatchConfig configures the live synchronizer.
type WatchConfig struct {
	// Debounce is the coalescing window, e.g. "100ms". "0s" disables it.
	Debounce string `yaml:"debounce" json:"debounce"`
	// BufferSize is the capacity of the event channel.
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
}

// StoreConfig configures the SQLite index.
type StoreConfig struct {
	// Path is the database file, relative to the workspace root unless absolute.
	Path string `yaml:"path" json:"path"`
	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver string `yaml:"driver" json:"driver"`
	// CacheSizeMB sets the SQLite page cache.
	CacheSizeMB int `yaml:"cache_size_mb" json:"cache_size_mb"`
}

// IndexConfig configures scanning.
type IndexConfig struct {
	// Workers bounds concurrent document parsing during a scan.
	Workers int `yaml:"workers" json:"workers"`
	// ParseCacheSize is the number of parsed documents kept between rescans.
	ParseCacheSize int `yaml:"parse_cache_size" json:"parse_cache_size"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Exclude:    []string{},
			Extensions: []string{".md", ".markdown"},
		},
		Watch: WatchConfig{
			Debounce:   "100ms",
			BufferSize: 256,
		},
		Store: StoreConfig{
			Path:        filepath.Join(DataDirName, "index.db"),
			Driver:      "sqlite",
			CacheSizeMB: 16,
		},
		Index: IndexConfig{
			Workers:        runtime.NumCPU(),
			ParseCacheSize: 4096,
		},
		LogLevel: "info",
	}
}

// Workspace returns the kinds and rules of this configuration.
func (c *Config) Workspace() Workspace {
	return Workspace{Kinds: c.Kinds, Rules: c.Rules}
}

// Definitions returns the configured kinds overlaid on the built-ins.
func (c *Config) Definitions() []kind.Definition {
	return kind.Merge(c.Kinds)
}

// DebounceDuration parses Watch.Debounce. Invalid values fall back to zero;
// Validate rejects them before they get here.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0
	}
	return d
}

// StorePath resolves the database path against root.
func (c *Config) StorePath(root string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(root, c.Store.Path)
}

// DataDir returns the directory for index state under root.
func DataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// GetUserConfigPath returns the path to the user configuration file.
//   - $XDG_CONFIG_HOME/mdindex/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/mdindex/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mdindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "mdindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "mdindex", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user configuration file if it exists.
// Kinds and rules are workspace conventions and are ignored here.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var parsed Config
	if err := parseYAMLFile(configPath, &parsed); err != nil {
		return nil, err
	}
	parsed.Kinds, parsed.Rules = nil, nil
	return &parsed, nil
}

// Load loads configuration for the workspace at dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/mdindex/config.yaml)
//  3. Project config (.mdindex.yaml in the workspace root)
//  4. Environment variables (MDINDEX_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ProjectFile returns the project configuration file in dir, or "" if none.
func ProjectFile(dir string) string {
	for _, name := range []string{ProjectFileName, ProjectFileNameAlt} {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func (c *Config) loadFromFile(dir string) error {
	path := ProjectFile(dir)
	if path == "" {
		return nil
	}

	var parsed Config
	if err := parseYAMLFile(path, &parsed); err != nil {
		return err
	}
	c.mergeWith(&parsed)
	c.Kinds = parsed.Kinds
	c.Rules = parsed.Rules
	return nil
}

func parseYAMLFile(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	out.Kinds = usableKinds(out.Kinds)
	out.Rules = usableRules(out.Rules)
	return nil
}

// usableKinds drops kind entries without a kind name.
func usableKinds(defs []kind.Definition) []kind.Definition {
	out := make([]kind.Definition, 0, len(defs))
	for _, d := range defs {
		d.Kind = kind.Kind(strings.TrimSpace(string(d.Kind)))
		if d.Kind == "" {
			continue
		}
		props := make([]string, 0, len(d.Properties))
		for _, p := range d.Properties {
			if p = strings.TrimSpace(p); p != "" {
				props = append(props, p)
			}
		}
		d.Properties = props
		out = append(out, d)
	}
	return out
}

// usableRules drops rules missing either a path or a kind.
func usableRules(rules []kind.Rule) []kind.Rule {
	out := make([]kind.Rule, 0, len(rules))
	for _, r := range rules {
		r.Kind = kind.Kind(strings.TrimSpace(string(r.Kind)))
		if strings.TrimSpace(r.Pattern) == "" || r.Kind == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}
	if len(other.Paths.Extensions) > 0 {
		c.Paths.Extensions = other.Paths.Extensions
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.BufferSize > 0 {
		c.Watch.BufferSize = other.Watch.BufferSize
	}

	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
	if other.Store.Driver != "" {
		c.Store.Driver = other.Store.Driver
	}
	if other.Store.CacheSizeMB > 0 {
		c.Store.CacheSizeMB = other.Store.CacheSizeMB
	}

	if other.Index.Workers > 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.ParseCacheSize > 0 {
		c.Index.ParseCacheSize = other.Index.ParseCacheSize
	}

	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// applyEnvOverrides applies MDINDEX_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MDINDEX_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MDINDEX_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("MDINDEX_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("MDINDEX_WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("MDINDEX_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Workers = n
		}
	}
}

// FindProjectRoot walks up from startDir looking for a project config file or
// a .git directory. If neither is found the absolute startDir is returned.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if ProjectFile(currentDir) != "" || dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	for i, r := range c.Rules {
		if err := glob.Valid(r.Pattern); err != nil {
			return fmt.Errorf("rules[%d]: %w", i, err)
		}
	}

	for _, p := range c.Paths.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("paths.exclude: invalid pattern %q", p)
		}
	}
	for _, ext := range c.Paths.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("paths.extensions: %q must start with '.'", ext)
		}
	}

	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return fmt.Errorf("watch.debounce: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("watch.debounce must be non-negative, got %s", c.Watch.Debounce)
	}
	if c.Watch.BufferSize < 0 {
		return fmt.Errorf("watch.buffer_size must be non-negative, got %d", c.Watch.BufferSize)
	}

	validDrivers := map[string]bool{"sqlite": true, "sqlite3": true}
	if !validDrivers[c.Store.Driver] {
		return fmt.Errorf("store.driver must be 'sqlite' or 'sqlite3', got %s", c.Store.Driver)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}

	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must be non-negative, got %d", c.Index.Workers)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.LogLevel)
	}

	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
