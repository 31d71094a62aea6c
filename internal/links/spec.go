// Package links materializes private per-developer files into a worktree as
// symbolic links.
//
// A links document lists (source, destination) pairs. Sources are paths on
// the developer's machine; destinations are relative to the worktree root.
// Links are only ever created inside the worktree, and existing files are
// replaced only with explicit consent. Directories are never removed.
package links

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the links document looked up in the repository root.
const DefaultFile = ".worktree-links.local.json"

// Spec is one entry of a links document.
type Spec struct {
	Source string // as written; may contain ~ and $VAR
	Dest   string // relative to the worktree root
}

// ConfigError reports a malformed links document.
type ConfigError struct {
	Path  string
	Index int // -1 for document-level problems
	Msg   string
}

func (e *ConfigError) Error() string {
	where := "links document"
	if e.Path != "" {
		where = e.Path
	}
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", where, e.Msg)
	}
	return fmt.Sprintf("%s: links[%d] %s", where, e.Index, e.Msg)
}

// Load reads and parses the links document at path. A missing file yields
// no specs and no error. Files ending in .yaml or .yml are parsed as YAML,
// everything else as JSON.
func Load(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read links file: %w", err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Index: -1, Msg: fmt.Sprintf("parse: %v", err)}
	}

	specs, err := Parse(doc)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Path = path
		}
		return nil, err
	}
	return specs, nil
}

// Parse converts a decoded document into specs. The document must be an
// array of objects carrying "src" (or "source") and "dest" (or "target")
// strings; the first alias present with a non-empty value wins.
func Parse(doc any) ([]Spec, error) {
	items, ok := doc.([]any)
	if !ok {
		return nil, &ConfigError{Index: -1, Msg: `must be an array, e.g. [{"src": "~/secrets/.env", "dest": ".env"}]`}
	}

	specs := make([]Spec, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &ConfigError{Index: i, Msg: "must be an object"}
		}
		src, err := pick(obj, "src", "source")
		if err != nil {
			return nil, &ConfigError{Index: i, Msg: err.Error()}
		}
		dest, err := pick(obj, "dest", "target")
		if err != nil {
			return nil, &ConfigError{Index: i, Msg: err.Error()}
		}
		if src == "" || dest == "" {
			return nil, &ConfigError{Index: i, Msg: "must contain src and dest (or source and target)"}
		}
		specs = append(specs, Spec{Source: src, Dest: dest})
	}
	return specs, nil
}

// pick returns the first non-empty string among keys. Empty values (null,
// false, zero, empty string, list or map) count as absent.
func pick(obj map[string]any, keys ...string) (string, error) {
	for _, k := range keys {
		v := obj[k]
		if isEmpty(v) {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("%s must be a string", k)
		}
		return s, nil
	}
	return "", nil
}

func isEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case float64:
		return v == 0
	case int:
		return v == 0
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}
