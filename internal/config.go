package internal

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFilename is the tuning file looked up under the agent config dir.
const ConfigFilename = "agent-peek.yaml"

// Config carries extraction and cache tuning. Zero values mean "use the
// default"; a missing or malformed file yields DefaultConfig.
type Config struct {
	// Roles is the allow-list of message roles to extract.
	Roles []string `yaml:"roles,omitempty"`
	// RecentBlobWindow bounds how many recent blobs a bounded recent
	// extraction scans.
	RecentBlobWindow int `yaml:"recent_blob_window,omitempty"`
	// PreviewChars is the per-message character budget for previews.
	PreviewChars int `yaml:"preview_chars,omitempty"`
	// CacheMaxEntries bounds the full-history cache entry count.
	CacheMaxEntries int `yaml:"cache_max_entries,omitempty"`
	// CacheMaxBytes bounds the full-history cache payload bytes.
	CacheMaxBytes int `yaml:"cache_max_bytes,omitempty"`
}

// DefaultConfig returns the built-in tuning.
func DefaultConfig() Config {
	return Config{
		Roles:            append([]string(nil), DefaultRoles...),
		RecentBlobWindow: fallbackRecentBlobWindow,
		PreviewChars:     DefaultPreviewChars,
		CacheMaxEntries:  DefaultCacheMaxEntries,
		CacheMaxBytes:    DefaultCacheMaxBytes,
	}
}

// LoadConfig reads <configDir>/agent-peek.yaml, filling any unset field with
// its default. Read or parse failures fall back to DefaultConfig; a broken
// tuning file must never make extraction unavailable.
func LoadConfig(configDir string) Config {
	cfg := DefaultConfig()

	path := filepath.Join(configDir, ConfigFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		LogWarn("Ignoring malformed config %s: %v", path, err)
		return cfg
	}

	if len(loaded.Roles) > 0 {
		cfg.Roles = loaded.Roles
	}
	if loaded.RecentBlobWindow > 0 {
		cfg.RecentBlobWindow = loaded.RecentBlobWindow
	}
	if loaded.PreviewChars > 0 {
		cfg.PreviewChars = loaded.PreviewChars
	}
	if loaded.CacheMaxEntries > 0 {
		cfg.CacheMaxEntries = loaded.CacheMaxEntries
	}
	if loaded.CacheMaxBytes > 0 {
		cfg.CacheMaxBytes = loaded.CacheMaxBytes
	}
	return cfg
}
