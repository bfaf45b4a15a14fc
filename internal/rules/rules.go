// Package rules routes newly managed clients to tags, floating state and
// monitors based on their window identity.
package rules

import (
	"fmt"
	"strings"

	"github.com/mx-scissortail/wasdwm/internal/config"
	"github.com/mx-scissortail/wasdwm/internal/tags"
)

// Rule is one compiled routing rule. Match fields are substring patterns;
// an empty pattern matches anything. Monitor -1 leaves the client where it
// appeared.
type Rule struct {
	Class    string
	Instance string
	Title    string
	Tags     tags.Mask
	Floating bool
	Monitor  int
}

// Result accumulates the outcome of every matching rule. Tags and Floating
// are OR-ed across matches so a window matching several rules lands on the
// union of their tags. Monitor is the last match that named one, or -1.
type Result struct {
	Tags     tags.Mask
	Floating bool
	Monitor  int
}

// Compile resolves configured rules against the tag names.
func Compile(cfgRules []config.Rule, tagNames []string) ([]Rule, error) {
	compiled := make([]Rule, 0, len(cfgRules))
	for i, rc := range cfgRules {
		r := Rule{
			Class:    rc.Class,
			Instance: rc.Instance,
			Title:    rc.Title,
			Floating: rc.Floating,
			Monitor:  -1,
		}
		if len(rc.Tags) > 0 {
			mask, err := tags.Parse(strings.Join(rc.Tags, ","), tagNames)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}
			r.Tags = mask
		}
		if rc.Monitor != nil {
			r.Monitor = *rc.Monitor
		}
		compiled = append(compiled, r)
	}
	return compiled, nil
}

// Matches reports whether the window identity satisfies every non-empty
// pattern of the rule.
func (r Rule) Matches(class, instance, title string) bool {
	if r.Class != "" && !strings.Contains(class, r.Class) {
		return false
	}
	if r.Instance != "" && !strings.Contains(instance, r.Instance) {
		return false
	}
	if r.Title != "" && !strings.Contains(title, r.Title) {
		return false
	}
	return true
}

// Apply runs every rule against a window identity and folds the matches
// into one Result. Tags and the floating flag accumulate across matches;
// the monitor follows the last matching rule that names one.
func Apply(ruleset []Rule, class, instance, title string) Result {
	res := Result{Monitor: -1}
	for _, r := range ruleset {
		if !r.Matches(class, instance, title) {
			continue
		}
		res.Tags |= r.Tags
		res.Floating = res.Floating || r.Floating
		if r.Monitor >= 0 {
			res.Monitor = r.Monitor
		}
	}
	return res
}
