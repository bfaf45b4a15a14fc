package engine

import (
	"github.com/mx-scissortail/wasdwm/internal/display"
	"github.com/mx-scissortail/wasdwm/internal/layout"
)

// Interactive move and resize run as a state machine over the event
// stream: the adapter grabs the pointer and forwards begin, motion and
// end events while other notifications keep flowing through the normal
// dispatch. Button release is the only terminator; there is no way to
// abort a drag back to its original geometry.

type dragKind int

const (
	dragNone dragKind = iota
	dragMove
	dragResize
)

type dragState struct {
	kind     dragKind
	clientID string
	startX   int
	startY   int
	origX    int
	origY    int
}

func (e *Engine) beginDragLocked(kind dragKind, p display.DragPayload) {
	c, _ := e.world.ClientByWindow(p.Window)
	if c == nil || c.Fullscreen {
		return
	}
	e.restackLocked(e.world.Selected())
	if kind == dragResize {
		// Park the pointer on the bottom-right corner so motion deltas
		// read as the new size.
		e.plan.Add(display.WarpPointer(c.Window,
			c.Geom.Width+c.BorderWidth-1, c.Geom.Height+c.BorderWidth-1))
	}
	e.drag = dragState{
		kind:     kind,
		clientID: c.ID,
		startX:   p.X,
		startY:   p.Y,
		origX:    c.Geom.X,
		origY:    c.Geom.Y,
	}
}

func (e *Engine) dragMotionLocked(p display.MotionPayload) {
	switch e.drag.kind {
	case dragMove:
		e.dragMoveLocked(p)
	case dragResize:
		e.dragResizeLocked(p)
	}
}

// dragMoveLocked tracks a move drag. While the candidate origin stays
// inside the selected monitor's work area it snaps to the nearest edge
// within the snap distance, and a tiled client that travels farther than
// the snap distance pops into floating. Only floating or unarranged
// clients actually move.
func (e *Engine) dragMoveLocked(p display.MotionPayload) {
	c, cm := e.world.ClientByID(e.drag.clientID)
	if c == nil {
		e.drag = dragState{}
		return
	}
	m := e.world.Selected()
	snap := e.cfg.Snap
	nx := e.drag.origX + (p.X - e.drag.startX)
	ny := e.drag.origY + (p.Y - e.drag.startY)
	if nx >= m.Work.X && nx <= m.Work.X+m.Work.Width &&
		ny >= m.Work.Y && ny <= m.Work.Y+m.Work.Height {
		if abs(m.Work.X-nx) < snap {
			nx = m.Work.X
		} else if abs((m.Work.X+m.Work.Width)-(nx+c.TotalWidth())) < snap {
			nx = m.Work.X + m.Work.Width - c.TotalWidth()
		}
		if abs(m.Work.Y-ny) < snap {
			ny = m.Work.Y
		} else if abs((m.Work.Y+m.Work.Height)-(ny+c.TotalHeight())) < snap {
			ny = m.Work.Y + m.Work.Height - c.TotalHeight()
		}
		if !c.Floating && m.Layout().Arranged() &&
			(abs(nx-c.Geom.X) > snap || abs(ny-c.Geom.Y) > snap) {
			e.toggleFloatingLocked()
		}
	}
	if !m.Layout().Arranged() || c.Floating {
		e.resizeLocked(cm, c, layout.Rect{
			X: nx, Y: ny, Width: c.Geom.Width, Height: c.Geom.Height,
		}, true)
	}
}

// dragResizeLocked tracks a resize drag. The pointer position maps to
// the new bottom-right corner; sizes never shrink below one pixel.
func (e *Engine) dragResizeLocked(p display.MotionPayload) {
	c, cm := e.world.ClientByID(e.drag.clientID)
	if c == nil {
		e.drag = dragState{}
		return
	}
	m := e.world.Selected()
	snap := e.cfg.Snap
	nw := max(p.X-e.drag.origX-2*c.BorderWidth+1, 1)
	nh := max(p.Y-e.drag.origY-2*c.BorderWidth+1, 1)
	if cm.Work.X+nw >= m.Work.X && cm.Work.X+nw <= m.Work.X+m.Work.Width &&
		cm.Work.Y+nh >= m.Work.Y && cm.Work.Y+nh <= m.Work.Y+m.Work.Height {
		if !c.Floating && m.Layout().Arranged() &&
			(abs(nw-c.Geom.Width) > snap || abs(nh-c.Geom.Height) > snap) {
			e.toggleFloatingLocked()
		}
	}
	if !m.Layout().Arranged() || c.Floating {
		e.resizeLocked(cm, c, layout.Rect{
			X: c.Geom.X, Y: c.Geom.Y, Width: nw, Height: nh,
		}, true)
	}
}

// dragEndLocked finishes the drag. A client dropped over another
// monitor's area moves there and that monitor becomes selected.
func (e *Engine) dragEndLocked() {
	st := e.drag
	e.drag = dragState{}
	if st.kind == dragNone {
		return
	}
	c, _ := e.world.ClientByID(st.clientID)
	if c == nil {
		return
	}
	if st.kind == dragResize {
		e.plan.Add(display.WarpPointer(c.Window,
			c.Geom.Width+c.BorderWidth-1, c.Geom.Height+c.BorderWidth-1))
	}
	if m := e.world.MonitorForRect(c.Geom); m != nil && m != e.world.Selected() {
		e.sendToMonitorLocked(c, m)
		e.world.SelMon = m.Num
		e.focusLocked(nil)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
