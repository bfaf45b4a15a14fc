package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mx-scissortail/wasdwm/internal/layout"
)

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	def := Default()
	if len(cfg.Tags) != len(def.Tags) {
		t.Fatalf("tags = %v, want defaults", cfg.Tags)
	}
	if !cfg.Bars.ShowTagBar || !cfg.Bars.TagsOnTop {
		t.Fatal("bar defaults should be on")
	}
	if !cfg.Behavior.FollowNewWindows || !cfg.Behavior.HideBuriedWindows {
		t.Fatal("behavior defaults should be on")
	}
	if cfg.Behavior.ResizeHints {
		t.Fatal("resizeHints should default off")
	}
	if cfg.Snap != 32 {
		t.Fatalf("snap = %d, want 32", cfg.Snap)
	}
}

func TestParseOverridesKeepOtherDefaults(t *testing.T) {
	raw := []byte(`
tags: [term, web, code]
layout:
  markedWidth: 0.6
  perTag:
    web: tile
bars:
  showTagBar: false
behavior:
  followNewWindows: false
snap: 16
rules:
  - class: Gimp
    floating: true
  - class: Chromium
    tags: [web]
    monitor: 0
`)
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Tags) != 3 || cfg.Tags[1] != "web" {
		t.Fatalf("tags = %v", cfg.Tags)
	}
	if cfg.Layout.MarkedWidth != 0.6 {
		t.Fatalf("markedWidth = %v, want 0.6", cfg.Layout.MarkedWidth)
	}
	if cfg.Layout.Default != "deck" || cfg.Layout.Alternate != "monocle" {
		t.Fatalf("layout defaults lost: %+v", cfg.Layout)
	}
	if cfg.Bars.ShowTagBar {
		t.Fatal("showTagBar override lost")
	}
	if !cfg.Bars.TagsOnTop {
		t.Fatal("tagsOnTop default lost")
	}
	if cfg.Behavior.FollowNewWindows {
		t.Fatal("followNewWindows override lost")
	}
	if !cfg.Behavior.ViewTagToggles {
		t.Fatal("viewTagToggles default lost")
	}
	if cfg.Snap != 16 {
		t.Fatalf("snap = %d, want 16", cfg.Snap)
	}
	if len(cfg.Rules) != 2 {
		t.Fatalf("rules = %+v", cfg.Rules)
	}
	if cfg.Rules[1].Monitor == nil || *cfg.Rules[1].Monitor != 0 {
		t.Fatalf("rule monitor = %v, want 0", cfg.Rules[1].Monitor)
	}
	if cfg.Rules[0].Monitor != nil {
		t.Fatalf("rule without monitor should stay nil, got %v", *cfg.Rules[0].Monitor)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no tags", func(c *Config) { c.Tags = nil }},
		{"too many tags", func(c *Config) {
			c.Tags = make([]string, 40)
			for i := range c.Tags {
				c.Tags[i] = string(rune('a' + i%26))
			}
		}},
		{"empty tag", func(c *Config) { c.Tags = []string{"a", ""} }},
		{"duplicate tag", func(c *Config) { c.Tags = []string{"a", "a"} }},
		{"comma in tag", func(c *Config) { c.Tags = []string{"a,b"} }},
		{"reserved tag", func(c *Config) { c.Tags = []string{"all"} }},
		{"marked width low", func(c *Config) { c.Layout.MarkedWidth = 0.01 }},
		{"marked width high", func(c *Config) { c.Layout.MarkedWidth = 0.99 }},
		{"bad default layout", func(c *Config) { c.Layout.Default = "spiral" }},
		{"bad per-tag layout", func(c *Config) { c.Layout.PerTag = map[string]string{"terminal": "spiral"} }},
		{"per-tag unknown tag", func(c *Config) { c.Layout.PerTag = map[string]string{"nope": "tile"} }},
		{"negative border", func(c *Config) { c.Borders.Width = -1 }},
		{"zero bar height", func(c *Config) { c.Bars.Height = 0 }},
		{"bad client bar mode", func(c *Config) { c.Bars.ClientBar = "sometimes" }},
		{"empty client bar cycle", func(c *Config) { c.Bars.ClientBarCycle = nil }},
		{"bad cycle mode", func(c *Config) { c.Bars.ClientBarCycle = []string{"bogus"} }},
		{"negative snap", func(c *Config) { c.Snap = -4 }},
		{"rule without match", func(c *Config) { c.Rules = []Rule{{Tags: []string{"terminal"}}} }},
		{"rule unknown tag", func(c *Config) { c.Rules = []Rule{{Class: "x", Tags: []string{"nope"}}} }},
		{"rule negative monitor", func(c *Config) {
			m := -2
			c.Rules = []Rule{{Class: "x", Monitor: &m}}
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate accepted invalid config")
			}
		})
	}
}

func TestLayoutTable(t *testing.T) {
	cfg := Default()
	cfg.Tags = []string{"term", "web"}
	cfg.Layout.PerTag = map[string]string{"web": "tile"}
	table, err := cfg.LayoutTable()
	if err != nil {
		t.Fatalf("LayoutTable: %v", err)
	}
	if len(table) != 3 {
		t.Fatalf("table length = %d, want 3", len(table))
	}
	if table[0] != [2]layout.Kind{layout.Deck, layout.Monocle} {
		t.Fatalf("all-view pair = %v", table[0])
	}
	if table[1] != [2]layout.Kind{layout.Deck, layout.Monocle} {
		t.Fatalf("term pair = %v", table[1])
	}
	if table[2] != [2]layout.Kind{layout.Tile, layout.Monocle} {
		t.Fatalf("web pair = %v", table[2])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of missing file should error")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("tags: [one, two]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Tags) != 2 {
		t.Fatalf("tags = %v", cfg.Tags)
	}
}
