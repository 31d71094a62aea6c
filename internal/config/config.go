package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/raphi011/iwt/internal/worktree"
)

// Environment variables read by Load.
const (
	EnvConfig        = "IWT_CONFIG"
	EnvWorktreesRoot = "IWT_WORKTREES_ROOT"
	EnvPrefix        = "IWT_PREFIX"
)

// Defaults applied when a key is absent from the config file.
const (
	DefaultPrefix          = "issue"
	DefaultLinksFile       = ".worktree-links.local.json"
	DefaultLockTimeout     = 10 * time.Second
	DefaultLinearAPIKeyEnv = "LINEAR_API_KEY"
)

// ErrExists is returned by Init when the config file is already present.
var ErrExists = errors.New("config file already exists")

// Duration is a time.Duration written as a Go duration string ("10s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds the iwt configuration
type Config struct {
	Prefix          string   `toml:"prefix"`
	WorktreesRoot   string   `toml:"worktrees_root,omitempty"` // empty: <repo-parent>/worktrees
	Base            string   `toml:"base,omitempty"`           // empty: detected per repo
	LinksFile       string   `toml:"links_file"`
	FetchMetadata   bool     `toml:"fetch_metadata"`
	Lock            bool     `toml:"lock"`
	LockTimeout     Duration `toml:"lock_timeout"`
	LogFile         string   `toml:"log_file,omitempty"`
	LinearAPIKeyEnv string   `toml:"linear_api_key_env"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Prefix:          DefaultPrefix,
		LinksFile:       DefaultLinksFile,
		FetchMetadata:   true,
		Lock:            true,
		LockTimeout:     Duration{DefaultLockTimeout},
		LinearAPIKeyEnv: DefaultLinearAPIKeyEnv,
	}
}

// WorktreesRootFor returns the directory holding worktrees of the repository
// at repoRoot. Without a configured root it is a "worktrees" directory next
// to the repository.
func (c Config) WorktreesRootFor(repoRoot string) string {
	return worktree.Root(c.WorktreesRoot, repoRoot)
}

// LinksPathFor resolves links_file against repoRoot. Absolute and ~ paths are
// used as-is.
func (c Config) LinksPathFor(repoRoot string) (string, error) {
	p, err := ExpandPath(c.LinksFile)
	if err != nil {
		return "", err
	}
	if p == "" || filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join(repoRoot, p), nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil // Empty is allowed (means not configured)
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

// Path returns the config file location: $IWT_CONFIG if set, otherwise
// ~/.config/iwt/config.toml.
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return ExpandPath(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "iwt", "config.toml"), nil
}

// Load reads the config file returned by Path and applies environment
// overrides. A missing file yields Default() with overrides (no error).
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		cfg := Default()
		return cfg, applyEnv(&cfg)
	}
	return LoadFile(path)
}

// LoadFile reads config from path and applies environment overrides.
// Returns an error only if the file exists but is invalid.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, applyEnv(&cfg)
	case err != nil:
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Default(), fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}

	if err := cfg.normalize(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	if err := applyEnv(&cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// normalize validates c and expands ~ in path settings (the shell doesn't
// expand them in config files).
func (c *Config) normalize() error {
	if err := ValidatePath(c.WorktreesRoot, "worktrees_root"); err != nil {
		return err
	}
	if err := ValidatePath(c.LogFile, "log_file"); err != nil {
		return err
	}

	var err error
	if c.WorktreesRoot, err = ExpandPath(c.WorktreesRoot); err != nil {
		return fmt.Errorf("expand worktrees_root: %w", err)
	}
	if c.LogFile, err = ExpandPath(c.LogFile); err != nil {
		return fmt.Errorf("expand log_file: %w", err)
	}

	if err := validateNonEmpty(c.Prefix, "prefix"); err != nil {
		return err
	}
	if err := validateNonEmpty(c.LinksFile, "links_file"); err != nil {
		return err
	}
	if err := validateNonEmpty(c.LinearAPIKeyEnv, "linear_api_key_env"); err != nil {
		return err
	}
	if c.LockTimeout.Duration <= 0 {
		return fmt.Errorf("lock_timeout must be positive, got: %s", c.LockTimeout)
	}
	return nil
}

// applyEnv overlays IWT_WORKTREES_ROOT and IWT_PREFIX onto cfg.
func applyEnv(cfg *Config) error {
	if root := os.Getenv(EnvWorktreesRoot); root != "" {
		if err := ValidatePath(root, EnvWorktreesRoot); err != nil {
			return err
		}
		expanded, err := ExpandPath(root)
		if err != nil {
			return fmt.Errorf("expand %s: %w", EnvWorktreesRoot, err)
		}
		cfg.WorktreesRoot = expanded
	}
	if prefix := os.Getenv(EnvPrefix); prefix != "" {
		cfg.Prefix = prefix
	}
	return nil
}

const defaultConfig = `# iwt configuration

# Branch prefix: branches are named <prefix>/<issue-key>[-<title-slug>]
# prefix = "issue"

# Directory holding worktrees; each lands in <worktrees_root>/<repo>/<branch>
# Must be an absolute path or start with ~ (no relative paths like "." or "..")
# Default: a "worktrees" directory next to the repository
# worktrees_root = "~/Git/worktrees"

# Base branch for new issue branches. Default: detected from origin/HEAD,
# then main or master
# base = "main"

# Links document applied to every new worktree (JSON or YAML).
# Relative paths are resolved against the repository root.
# links_file = ".worktree-links.local.json"

# Look up issue titles on GitHub (gh CLI) and Linear
# fetch_metadata = true

# Serialize concurrent iwt runs per repository with a lock file in the
# git common directory
# lock = true
# lock_timeout = "10s"

# Optional JSON trace log (rotated), useful for debugging
# log_file = "~/.local/state/iwt/trace.log"

# Environment variable holding the Linear API key
# linear_api_key_env = "LINEAR_API_KEY"

# Per-repository overrides can live in .iwt.toml at the repository root:
#   prefix, base, links_file, fetch_metadata
`

// DefaultConfig returns the default configuration template content.
func DefaultConfig() string {
	return defaultConfig
}

// Init creates a default config file at Path().
// If force is true, overwrites existing file
// Returns the path to the created file
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", err
	}
	return path, nil
}
