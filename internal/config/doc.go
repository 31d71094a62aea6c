// Package config handles loading and validation of iwt configuration.
//
// Configuration is read from ~/.config/iwt/config.toml (or $IWT_CONFIG) with
// environment variable overrides for the most commonly scripted settings.
//
// # Configuration Sources (highest priority first)
//
//   - Command-line flags (applied by the CLI)
//   - IWT_WORKTREES_ROOT and IWT_PREFIX env vars
//   - .iwt.toml at the repository root (prefix, base, links_file, fetch_metadata)
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - prefix: Branch namespace, branches are <prefix>/<key>[-<slug>] (default: "issue")
//   - worktrees_root: Base directory for worktrees (must be absolute or ~/...)
//   - base: Base branch for new branches (default: detected)
//   - links_file: Links document, relative to the repository root
//   - lock, lock_timeout: Per-repository lock for concurrent runs
//   - log_file: Optional rotated JSON trace log
//
// # Path Validation
//
// Directory paths must be absolute or start with ~ (no relative paths like "."
// or "..") to avoid confusion about the working directory.
package config
