// Package config reads the global ~/.feedplex/config.toml.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/feedplex/feedplex/internal/normalize"
	"github.com/feedplex/feedplex/internal/timeline"
)

// Config represents the global config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`

	Storage  Storage   `toml:"storage"`
	Accounts []Account `toml:"accounts"`

	// Labels extends or overrides the built-in content-label vocabulary.
	Labels map[string]Label `toml:"labels"`

	// NetworkOnlyTimelines are backed by server-internal pagination and must
	// never have their cursors persisted. Empty means the built-in default.
	NetworkOnlyTimelines []string `toml:"network_only_timelines"`

	// RefreshSeconds is the background home-timeline refresh interval.
	RefreshSeconds int `toml:"refresh_seconds"`
}

// Storage selects the cache database backend.
type Storage struct {
	Backend string `toml:"backend"` // "bolt" (default) or "sqlite"
}

// Account is one configured account entry.
type Account struct {
	ID       string `toml:"id"`
	Protocol string `toml:"protocol"` // "mastodon" or "bluesky"
	Host     string `toml:"host"`
	Handle   string `toml:"handle"`
	ViewerID string `toml:"viewer_id"`

	AccessToken string `toml:"access_token,omitempty"` // mastodon
	AppPassword string `toml:"app_password,omitempty"` // bluesky
}

// Label is one vocabulary override entry.
type Label struct {
	Sensitive bool   `toml:"sensitive"`
	Spoiler   string `toml:"spoiler"`
}

// Load reads config from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// LabelTable merges the config overrides onto the built-in vocabulary.
func (c *Config) LabelTable() normalize.LabelTable {
	if len(c.Labels) == 0 {
		return normalize.DefaultLabelTable
	}
	overrides := make(normalize.LabelTable, len(c.Labels))
	for val, l := range c.Labels {
		overrides[val] = normalize.LabelRule{Sensitive: l.Sensitive, Spoiler: l.Spoiler}
	}
	return normalize.DefaultLabelTable.Merge(overrides)
}

// NetworkOnly returns the configured network-only timeline names, defaulting
// to the server-paginated lists that cannot be cached offline.
func (c *Config) NetworkOnly() []string {
	if len(c.NetworkOnlyTimelines) > 0 {
		return c.NetworkOnlyTimelines
	}
	return []string{timeline.NameFavourites, timeline.NameBookmarks}
}
