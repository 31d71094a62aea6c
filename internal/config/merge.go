package config

// MergeLocal merges a local per-repo config into a global config,
// returning a new Config without mutating the global.
// Returns global unchanged if local is nil.
func MergeLocal(global Config, local *LocalConfig) Config {
	if local == nil {
		return global
	}

	// Fields not listed in LocalConfig (worktrees_root, lock, log_file, ...)
	// are inherited from global as-is.
	merged := global

	if local.Prefix != "" {
		merged.Prefix = local.Prefix
	}
	if local.Base != "" {
		merged.Base = local.Base
	}
	if local.LinksFile != "" {
		merged.LinksFile = local.LinksFile
	}
	if local.FetchMetadata != nil {
		merged.FetchMetadata = *local.FetchMetadata
	}

	return merged
}
