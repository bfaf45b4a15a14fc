package config

import (
	"strings"

	"github.com/google/go-cmp/cmp"

	"gopkg.in/yaml.v3"
)

// Serialize renders a configuration to canonical YAML for change
// detection across reloads.
func Serialize(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// DiffSerialized returns a line diff between two serialized
// configurations, or an empty string when they match.
func DiffSerialized(previous, current []byte) string {
	return cmp.Diff(splitLines(previous), splitLines(current))
}

func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}
