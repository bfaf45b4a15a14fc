// Package config loads and validates the YAML configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mx-scissortail/wasdwm/internal/layout"
	"github.com/mx-scissortail/wasdwm/internal/tags"
)

// Config is the full configuration surface.
type Config struct {
	Tags     []string       `yaml:"tags"`
	Layout   LayoutConfig   `yaml:"layout"`
	Borders  BorderConfig   `yaml:"borders"`
	Bars     BarConfig      `yaml:"bars"`
	Behavior BehaviorConfig `yaml:"behavior"`
	Snap     int            `yaml:"snap"`
	Rules    []Rule         `yaml:"rules"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LayoutConfig selects the starting layouts. Default fills the primary
// layout slot of every tag, Alternate the secondary slot; PerTag overrides
// the primary slot for the named tags.
type LayoutConfig struct {
	MarkedWidth float64           `yaml:"markedWidth"`
	Default     string            `yaml:"default"`
	Alternate   string            `yaml:"alternate"`
	PerTag      map[string]string `yaml:"perTag"`
}

// BorderConfig sets border widths in pixels for tiled and floating clients.
type BorderConfig struct {
	Width      int `yaml:"width"`
	FloatWidth int `yaml:"floatWidth"`
}

// BarConfig controls the tag bar and the client bar. ClientBarCycle lists
// the modes the cycle command rotates through; modes left out stay
// reachable by explicit request.
type BarConfig struct {
	Height         int      `yaml:"height"`
	ShowTagBar     bool     `yaml:"showTagBar"`
	TagsOnTop      bool     `yaml:"tagsOnTop"`
	ClientBar      string   `yaml:"clientBar"`
	ClientBarCycle []string `yaml:"clientBarCycle"`
}

// BehaviorConfig holds the global behavior switches.
type BehaviorConfig struct {
	ResizeHints       bool `yaml:"resizeHints"`
	ViewTagToggles    bool `yaml:"viewTagToggles"`
	FollowNewWindows  bool `yaml:"followNewWindows"`
	HideInactiveTags  bool `yaml:"hideInactiveTags"`
	HideBuriedWindows bool `yaml:"hideBuriedWindows"`
}

// Rule routes new clients by window identity. Empty match fields always
// match; Monitor nil leaves the client on the monitor it appeared on.
type Rule struct {
	Class    string   `yaml:"class"`
	Instance string   `yaml:"instance"`
	Title    string   `yaml:"title"`
	Tags     []string `yaml:"tags"`
	Floating bool     `yaml:"floating"`
	Monitor  *int     `yaml:"monitor"`
}

// LoggingConfig configures the daemon log output.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
}

var validBarModes = []string{"never", "auto", "always"}

var validLogLevels = []string{"trace", "debug", "info", "warn", "error"}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Tags: []string{"terminal", "1", "2", "3", "4", "5", "6", "7", "8"},
		Layout: LayoutConfig{
			MarkedWidth: 0.55,
			Default:     "deck",
			Alternate:   "monocle",
		},
		Borders: BorderConfig{Width: 0, FloatWidth: 1},
		Bars: BarConfig{
			Height:         18,
			ShowTagBar:     true,
			TagsOnTop:      true,
			ClientBar:      "auto",
			ClientBarCycle: []string{"never", "auto"},
		},
		Behavior: BehaviorConfig{
			ResizeHints:       false,
			ViewTagToggles:    true,
			FollowNewWindows:  true,
			HideInactiveTags:  true,
			HideBuriedWindows: true,
		},
		Snap:    32,
		Logging: LoggingConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 3},
	}
}

// UnmarshalYAML decodes over a pre-filled default so absent fields keep
// their default values, including the flags that default to on.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type rawConfig Config
	raw := rawConfig(Default())
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*c = Config(raw)
	return nil
}

// Load reads, parses and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a raw configuration payload.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for contradictions before anything
// acts on it.
func (c *Config) Validate() error {
	if len(c.Tags) == 0 {
		return fmt.Errorf("tags: at least one tag required")
	}
	if len(c.Tags) > tags.MaxTags {
		return fmt.Errorf("tags: %d tags configured, maximum is %d", len(c.Tags), tags.MaxTags)
	}
	seen := make(map[string]bool, len(c.Tags))
	for i, name := range c.Tags {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return fmt.Errorf("tags[%d]: empty tag name", i)
		}
		if trimmed != name {
			return fmt.Errorf("tags[%d]: tag name %q has surrounding whitespace", i, name)
		}
		if strings.Contains(name, ",") {
			return fmt.Errorf("tags[%d]: tag name %q may not contain a comma", i, name)
		}
		if strings.EqualFold(name, "all") {
			return fmt.Errorf("tags[%d]: %q is reserved", i, name)
		}
		if seen[name] {
			return fmt.Errorf("tags[%d]: duplicate tag name %q", i, name)
		}
		seen[name] = true
	}
	if c.Layout.MarkedWidth < 0.05 || c.Layout.MarkedWidth > 0.95 {
		return fmt.Errorf("layout.markedWidth: %v outside 0.05..0.95", c.Layout.MarkedWidth)
	}
	if _, err := layout.ParseKind(c.Layout.Default); err != nil {
		return fmt.Errorf("layout.default: %w", err)
	}
	if _, err := layout.ParseKind(c.Layout.Alternate); err != nil {
		return fmt.Errorf("layout.alternate: %w", err)
	}
	for tag, name := range c.Layout.PerTag {
		if !seen[tag] {
			return fmt.Errorf("layout.perTag: unknown tag %q", tag)
		}
		if _, err := layout.ParseKind(name); err != nil {
			return fmt.Errorf("layout.perTag[%s]: %w", tag, err)
		}
	}
	if c.Borders.Width < 0 || c.Borders.FloatWidth < 0 {
		return fmt.Errorf("borders: negative border width")
	}
	if c.Bars.Height < 1 {
		return fmt.Errorf("bars.height: %d, want at least 1", c.Bars.Height)
	}
	if err := validBarMode(c.Bars.ClientBar); err != nil {
		return fmt.Errorf("bars.clientBar: %w", err)
	}
	if len(c.Bars.ClientBarCycle) == 0 {
		return fmt.Errorf("bars.clientBarCycle: at least one mode required")
	}
	for i, mode := range c.Bars.ClientBarCycle {
		if err := validBarMode(mode); err != nil {
			return fmt.Errorf("bars.clientBarCycle[%d]: %w", i, err)
		}
	}
	if c.Snap < 0 {
		return fmt.Errorf("snap: negative snap distance %d", c.Snap)
	}
	for i, r := range c.Rules {
		if r.Class == "" && r.Instance == "" && r.Title == "" {
			return fmt.Errorf("rules[%d]: needs at least one of class, instance or title", i)
		}
		if len(r.Tags) > 0 {
			if _, err := tags.Parse(strings.Join(r.Tags, ","), c.Tags); err != nil {
				return fmt.Errorf("rules[%d]: %w", i, err)
			}
		}
		if r.Monitor != nil && *r.Monitor < 0 {
			return fmt.Errorf("rules[%d]: negative monitor %d", i, *r.Monitor)
		}
	}
	if !contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 1 {
		return fmt.Errorf("logging.maxSizeMB: %d, want at least 1", c.Logging.MaxSizeMB)
	}
	if c.Logging.MaxBackups < 0 {
		return fmt.Errorf("logging.maxBackups: negative %d", c.Logging.MaxBackups)
	}
	return nil
}

// LayoutTable resolves the per-tag layout pairs. Index 0 is the all-tags
// view, index i+1 belongs to tag i. Call Validate first; parse errors here
// mean the config was never validated.
func (c *Config) LayoutTable() ([][2]layout.Kind, error) {
	first, err := layout.ParseKind(c.Layout.Default)
	if err != nil {
		return nil, err
	}
	second, err := layout.ParseKind(c.Layout.Alternate)
	if err != nil {
		return nil, err
	}
	table := make([][2]layout.Kind, len(c.Tags)+1)
	for i := range table {
		table[i] = [2]layout.Kind{first, second}
	}
	for tag, name := range c.Layout.PerTag {
		k, err := layout.ParseKind(name)
		if err != nil {
			return nil, err
		}
		for i, n := range c.Tags {
			if n == tag {
				table[i+1] = [2]layout.Kind{k, second}
			}
		}
	}
	return table, nil
}

func validBarMode(mode string) error {
	if contains(validBarModes, mode) {
		return nil
	}
	return fmt.Errorf("unknown client bar mode %q (want never, auto or always)", mode)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
