package tags

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// Mask is a bitmask of tag memberships. Bit i corresponds to the tag at
// index i in the configured tag list.
type Mask uint32

// MaxTags bounds how many tags a configuration may declare. Masks must fit
// in a uint32 with one bit to spare so the all-tags mask never overflows.
const MaxTags = 31

// All returns the mask with the first n tag bits set.
func All(n int) Mask {
	if n <= 0 {
		return 0
	}
	if n > MaxTags {
		n = MaxTags
	}
	return Mask(1)<<uint(n) - 1
}

// Bit returns the mask selecting only the tag at index i.
func Bit(i int) Mask {
	if i < 0 || i >= MaxTags {
		return 0
	}
	return Mask(1) << uint(i)
}

// Has reports whether the tag at index i is set.
func (m Mask) Has(i int) bool {
	return m&Bit(i) != 0
}

// Intersects reports whether the two masks share at least one tag.
func (m Mask) Intersects(o Mask) bool {
	return m&o != 0
}

// Clamp drops bits beyond the first n tags.
func (m Mask) Clamp(n int) Mask {
	return m & All(n)
}

// Empty reports whether no tag is set.
func (m Mask) Empty() bool {
	return m == 0
}

// Count returns the number of set tags.
func (m Mask) Count() int {
	return bits.OnesCount32(uint32(m))
}

// Lowest returns the index of the lowest set tag, or -1 for an empty mask.
func (m Mask) Lowest() int {
	if m == 0 {
		return -1
	}
	return bits.TrailingZeros32(uint32(m))
}

// Parse resolves a tag spec against the configured tag names. A spec is
// either the literal "all" or a comma-separated list of tag names and
// 1-based tag numbers.
func Parse(spec string, names []string) (Mask, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, fmt.Errorf("empty tag spec")
	}
	if strings.EqualFold(spec, "all") {
		return All(len(names)), nil
	}
	var mask Mask
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			if idx < 1 || idx > len(names) {
				return 0, fmt.Errorf("tag number %d out of range 1..%d", idx, len(names))
			}
			mask |= Bit(idx - 1)
			continue
		}
		found := false
		for i, name := range names {
			if name == part {
				mask |= Bit(i)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown tag %q", part)
		}
	}
	if mask == 0 {
		return 0, fmt.Errorf("tag spec %q selects no tags", spec)
	}
	return mask, nil
}

// Format renders a mask as a spec string using the configured names.
// Unnamed bits fall back to their 1-based number.
func (m Mask) Format(names []string) string {
	m = m.Clamp(len(names))
	if m == All(len(names)) && len(names) > 0 {
		return "all"
	}
	var parts []string
	for i := 0; i < len(names); i++ {
		if m.Has(i) {
			parts = append(parts, names[i])
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ",")
}
