// Package state owns the client and monitor model: who is managed, how
// clients order themselves on each monitor, and which tags are in view.
package state

import (
	"github.com/mx-scissortail/wasdwm/internal/hints"
	"github.com/mx-scissortail/wasdwm/internal/layout"
	"github.com/mx-scissortail/wasdwm/internal/tags"
)

// WindowID is a native window handle as reported by the display adapter.
type WindowID uint64

// Client is one managed window. Geometry is interior size; the window
// covers Geom plus BorderWidth on every side. The Old fields hold the
// geometry to restore when leaving fullscreen or re-floating.
type Client struct {
	ID             string
	Window         WindowID
	Name           string
	Class          string
	Instance       string
	Geom           layout.Rect
	BorderWidth    int
	OldGeom        layout.Rect
	OldBorderWidth int
	Hints          hints.Hints
	Tags           tags.Mask
	MonitorID      int
	TransientFor   WindowID

	Floating    bool
	OldFloating bool
	Fullscreen  bool
	Urgent      bool
	NeverFocus  bool
	Minimized   bool
	OnScreen    bool
	Marked      bool
}

// TotalWidth returns the on-screen width including both borders.
func (c *Client) TotalWidth() int { return c.Geom.Width + 2*c.BorderWidth }

// TotalHeight returns the on-screen height including both borders.
func (c *Client) TotalHeight() int { return c.Geom.Height + 2*c.BorderWidth }

// SaveGeom records the current geometry as the restore target.
func (c *Client) SaveGeom() {
	c.OldGeom = c.Geom
	c.OldBorderWidth = c.BorderWidth
}
