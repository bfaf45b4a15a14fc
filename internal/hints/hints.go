// Package hints resolves requested window geometry against ICCCM size
// hints and screen bounds.
package hints

import "github.com/mx-scissortail/wasdwm/internal/layout"

// Raw carries the WM_NORMAL_HINTS fields as the display adapter read them
// off a window, before precedence rules collapse them.
type Raw struct {
	HasBase    bool `json:"hasBase,omitempty"`
	BaseW      int  `json:"baseW,omitempty"`
	BaseH      int  `json:"baseH,omitempty"`
	HasMin     bool `json:"hasMin,omitempty"`
	MinW       int  `json:"minW,omitempty"`
	MinH       int  `json:"minH,omitempty"`
	HasMax     bool `json:"hasMax,omitempty"`
	MaxW       int  `json:"maxW,omitempty"`
	MaxH       int  `json:"maxH,omitempty"`
	HasInc     bool `json:"hasInc,omitempty"`
	IncW       int  `json:"incW,omitempty"`
	IncH       int  `json:"incH,omitempty"`
	HasAspect  bool `json:"hasAspect,omitempty"`
	MinAspectX int  `json:"minAspectX,omitempty"`
	MinAspectY int  `json:"minAspectY,omitempty"`
	MaxAspectX int  `json:"maxAspectX,omitempty"`
	MaxAspectY int  `json:"maxAspectY,omitempty"`
}

// Hints is the resolved constraint set for one client. MinAspect caps
// height/width and MaxAspect caps width/height, matching the ICCCM aspect
// convention.
type Hints struct {
	BaseW, BaseH int
	IncW, IncH   int
	MaxW, MaxH   int
	MinW, MinH   int
	MinAspect    float64
	MaxAspect    float64
	Fixed        bool
}

// FromRaw applies the ICCCM precedence rules: base size falls back to the
// minimum size and vice versa, and a client whose minimum equals its
// maximum cannot be resized.
func FromRaw(r Raw) Hints {
	var h Hints
	switch {
	case r.HasBase:
		h.BaseW, h.BaseH = r.BaseW, r.BaseH
	case r.HasMin:
		h.BaseW, h.BaseH = r.MinW, r.MinH
	}
	if r.HasInc {
		h.IncW, h.IncH = r.IncW, r.IncH
	}
	if r.HasMax {
		h.MaxW, h.MaxH = r.MaxW, r.MaxH
	}
	switch {
	case r.HasMin:
		h.MinW, h.MinH = r.MinW, r.MinH
	case r.HasBase:
		h.MinW, h.MinH = r.BaseW, r.BaseH
	}
	if r.HasAspect && r.MinAspectX > 0 && r.MaxAspectY > 0 {
		h.MinAspect = float64(r.MinAspectY) / float64(r.MinAspectX)
		h.MaxAspect = float64(r.MaxAspectX) / float64(r.MaxAspectY)
	}
	h.Fixed = h.MaxW != 0 && h.MaxH != 0 && h.MaxW == h.MinW && h.MaxH == h.MinH
	return h
}

// Target is the client-side state a resolution reads: its stored geometry,
// border width and resolved hints.
type Target struct {
	Geom        layout.Rect
	BorderWidth int
	Hints       Hints
}

// Env is the monitor and session context for one resolution. Interactive
// resolutions clamp against the whole virtual screen, everything else
// against the monitor's work area. Refine applies base, aspect and
// increment refinement; callers enable it for floating clients, float
// layouts, or when size hints are honored globally.
type Env struct {
	Work        layout.Rect
	ScreenW     int
	ScreenH     int
	BarHeight   int
	Refine      bool
	Interactive bool
}

// Resolve clamps a requested geometry against the environment and the
// target's size hints. The flag reports whether the result differs from
// the target's current geometry.
//
// Overflow clamps pull the window back by its current on-screen size, not
// the requested one, while underflow clamps compare the requested size.
func Resolve(req layout.Rect, t Target, env Env) (layout.Rect, bool) {
	x, y := req.X, req.Y
	w := max(1, req.Width)
	h := max(1, req.Height)
	curW := t.Geom.Width + 2*t.BorderWidth
	curH := t.Geom.Height + 2*t.BorderWidth
	if env.Interactive {
		if x > env.ScreenW {
			x = env.ScreenW - curW
		}
		if y > env.ScreenH {
			y = env.ScreenH - curH
		}
		if x+w+2*t.BorderWidth < 0 {
			x = 0
		}
		if y+h+2*t.BorderWidth < 0 {
			y = 0
		}
	} else {
		if x >= env.Work.Right() {
			x = env.Work.Right() - curW
		}
		if y >= env.Work.Bottom() {
			y = env.Work.Bottom() - curH
		}
		if x+w+2*t.BorderWidth <= env.Work.X {
			x = env.Work.X
		}
		if y+h+2*t.BorderWidth <= env.Work.Y {
			y = env.Work.Y
		}
	}
	if h < env.BarHeight {
		h = env.BarHeight
	}
	if w < env.BarHeight {
		w = env.BarHeight
	}
	if env.Refine {
		hi := t.Hints
		// See the last two sentences of ICCCM 4.1.2.3: a base size equal to
		// the minimum is excluded from aspect checks but not increments.
		baseIsMin := hi.BaseW == hi.MinW && hi.BaseH == hi.MinH
		if !baseIsMin {
			w -= hi.BaseW
			h -= hi.BaseH
		}
		if hi.MinAspect > 0 && hi.MaxAspect > 0 {
			if hi.MaxAspect < float64(w)/float64(h) {
				w = int(float64(h)*hi.MaxAspect + 0.5)
			} else if hi.MinAspect < float64(h)/float64(w) {
				h = int(float64(w)*hi.MinAspect + 0.5)
			}
		}
		if baseIsMin {
			w -= hi.BaseW
			h -= hi.BaseH
		}
		if hi.IncW > 0 {
			w -= w % hi.IncW
		}
		if hi.IncH > 0 {
			h -= h % hi.IncH
		}
		w = max(w+hi.BaseW, hi.MinW)
		h = max(h+hi.BaseH, hi.MinH)
		if hi.MaxW > 0 {
			w = min(w, hi.MaxW)
		}
		if hi.MaxH > 0 {
			h = min(h, hi.MaxH)
		}
	}
	resolved := layout.Rect{X: x, Y: y, Width: w, Height: h}
	return resolved, resolved != t.Geom
}
