package state

import (
	"github.com/mx-scissortail/wasdwm/internal/layout"
	"github.com/mx-scissortail/wasdwm/internal/tags"
)

// State is the managed world: every monitor in output order plus the
// selected one. Monitor numbers equal their slice index.
type State struct {
	TagNames []string
	Monitors []*Monitor
	SelMon   int
}

// New builds an empty world over the configured tag names.
func New(tagNames []string) *State {
	return &State{TagNames: append([]string(nil), tagNames...)}
}

// NumTags returns how many tags are configured.
func (s *State) NumTags() int { return len(s.TagNames) }

// AllTags returns the mask covering every configured tag.
func (s *State) AllTags() tags.Mask { return tags.All(s.NumTags()) }

// Selected returns the selected monitor, or nil before any monitor exists.
func (s *State) Selected() *Monitor {
	if s.SelMon < 0 || s.SelMon >= len(s.Monitors) {
		return nil
	}
	return s.Monitors[s.SelMon]
}

// MonitorByNum returns the monitor with the given number, or nil.
func (s *State) MonitorByNum(num int) *Monitor {
	if num < 0 || num >= len(s.Monitors) {
		return nil
	}
	return s.Monitors[num]
}

// ClientByWindow finds a managed client by its native window.
func (s *State) ClientByWindow(win WindowID) (*Client, *Monitor) {
	for _, m := range s.Monitors {
		for _, c := range m.Clients {
			if c.Window == win {
				return c, m
			}
		}
	}
	return nil, nil
}

// ClientByID finds a managed client by its ID.
func (s *State) ClientByID(id string) (*Client, *Monitor) {
	if id == "" {
		return nil, nil
	}
	for _, m := range s.Monitors {
		for _, c := range m.Clients {
			if c.ID == id {
				return c, m
			}
		}
	}
	return nil, nil
}

// MonitorForRect returns the monitor whose work area shares the most
// pixels with the rectangle, falling back to the selected monitor.
func (s *State) MonitorForRect(r layout.Rect) *Monitor {
	best := s.Selected()
	area := 0
	for _, m := range s.Monitors {
		if a := m.Work.Overlap(r); a > area {
			area = a
			best = m
		}
	}
	return best
}

// ScreenExtent returns the bottom-right corner of the virtual screen, the
// union of every monitor.
func (s *State) ScreenExtent() (w, h int) {
	for _, m := range s.Monitors {
		w = max(w, m.Screen.Right())
		h = max(h, m.Screen.Bottom())
	}
	return w, h
}

// MonitorAt returns the monitor containing the point, falling back to the
// selected monitor.
func (s *State) MonitorAt(x, y int) *Monitor {
	for _, m := range s.Monitors {
		if m.Screen.Contains(x, y) {
			return m
		}
	}
	return s.Selected()
}

// MonitorInDirection returns the next monitor in output order for dir > 0
// and the previous for dir < 0, wrapping at either end.
func (s *State) MonitorInDirection(dir int) *Monitor {
	n := len(s.Monitors)
	if n == 0 {
		return nil
	}
	switch {
	case dir > 0:
		return s.Monitors[(s.SelMon+1)%n]
	case dir < 0:
		return s.Monitors[(s.SelMon-1+n)%n]
	}
	return s.Selected()
}
