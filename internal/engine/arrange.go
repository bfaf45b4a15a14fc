package engine

import (
	"github.com/mx-scissortail/wasdwm/internal/display"
	"github.com/mx-scissortail/wasdwm/internal/hints"
	"github.com/mx-scissortail/wasdwm/internal/layout"
	"github.com/mx-scissortail/wasdwm/internal/state"
)

// arrangeLocked re-runs the layout over one monitor, or over every
// monitor when m is nil.
func (e *Engine) arrangeLocked(m *state.Monitor) {
	if m == nil {
		for _, mm := range e.world.Monitors {
			e.arrangeMonitorLocked(mm)
		}
		return
	}
	e.arrangeMonitorLocked(m)
}

// arrangeMonitorLocked is one full layout pass: decide who is on screen,
// show and hide windows, shave the bars off the work area, place the
// tiled clients and publish the bar.
func (e *Engine) arrangeMonitorLocked(m *state.Monitor) {
	m.ComputeOnScreen()
	e.showHideLocked(m)
	e.updateBarAreaLocked(m)
	tiled := m.Tiled()
	m.Symbol = layout.Label(m.Layout(), m.CountVisible(), len(tiled), m.NumMarked)
	if m.Layout().Arranged() && len(tiled) > 0 {
		borders := make([]int, len(tiled))
		for i, c := range tiled {
			borders[i] = c.BorderWidth
		}
		frames := layout.Arrange(m.Layout(), m.Work, m.MarkedWidth, m.NumMarked, borders)
		for i, c := range tiled {
			e.resizeLocked(m, c, frames[i], false)
		}
	}
	e.pushBarLocked(m)
	e.collector.RecordArrange()
}

// showHideLocked walks the focus stack, moving windows into view top down
// and parking the rest off screen bottom up. Parking leaves the stored
// geometry alone, so a later show puts the window right back.
func (e *Engine) showHideLocked(m *state.Monitor) {
	shown := func(c *state.Client) bool {
		return m.Visible(c) && !c.Minimized && (c.OnScreen || !e.cfg.HideBuriedWindows)
	}
	for _, id := range m.Stack {
		c := m.ClientByID(id)
		if c == nil || !shown(c) {
			continue
		}
		e.plan.Add(display.Show(c.Window, c.Geom.X, c.Geom.Y))
		if (!m.Layout().Arranged() || c.Floating) && !c.Fullscreen {
			e.resizeLocked(m, c, c.Geom, false)
		}
	}
	for i := len(m.Stack) - 1; i >= 0; i-- {
		c := m.ClientByID(m.Stack[i])
		if c == nil || shown(c) {
			continue
		}
		e.plan.Add(display.Hide(c.Window, -2*c.TotalWidth(), c.Geom.Y))
	}
}

// updateBarAreaLocked recomputes the work area. The tag bar takes its
// edge first; when both bars share an edge the client bar sits opposite.
func (e *Engine) updateBarAreaLocked(m *state.Monitor) {
	m.Work = m.Screen
	if m.ShowTagBar {
		m.Work.Height -= e.cfg.BarHeight
		if m.TagsOnTop {
			m.Work.Y += e.cfg.BarHeight
		}
	}
	m.ClientBarVisible = e.clientBarVisibleLocked(m)
	if m.ClientBarVisible {
		m.Work.Height -= e.cfg.BarHeight
		if !m.TagsOnTop {
			m.Work.Y += e.cfg.BarHeight
		}
	}
}

// clientBarVisibleLocked decides whether the client bar shows. Auto mode
// waits until the bar carries information the layout hides: minimized
// clients, or more clients than the monocle pile or deck stack area can
// show at once.
func (e *Engine) clientBarVisibleLocked(m *state.Monitor) bool {
	switch m.ClientBarMode {
	case state.BarAlways:
		return true
	case state.BarNever:
		return false
	}
	if m.CountHidden() > 0 {
		return true
	}
	n := m.CountVisible()
	switch m.Layout() {
	case layout.Monocle:
		return n > 1
	case layout.Deck:
		return n > 1+m.NumMarked
	}
	return false
}

// resizeLocked resolves a requested geometry against size hints and the
// monitor bounds, then moves the window if anything changed.
func (e *Engine) resizeLocked(m *state.Monitor, c *state.Client, req layout.Rect, interactive bool) {
	env := hints.Env{
		Work:        m.Work,
		BarHeight:   e.cfg.BarHeight,
		Refine:      c.Floating || !m.Layout().Arranged() || e.cfg.ResizeHints,
		Interactive: interactive,
	}
	env.ScreenW, env.ScreenH = e.world.ScreenExtent()
	target := hints.Target{Geom: c.Geom, BorderWidth: c.BorderWidth, Hints: c.Hints}
	if resolved, changed := hints.Resolve(req, target, env); changed {
		e.resizeClientLocked(c, resolved)
	}
}

// resizeClientLocked commits a geometry unconditionally: the previous
// geometry becomes the restore target and the adapter gets a placement,
// which echoes the final size back to the client.
func (e *Engine) resizeClientLocked(c *state.Client, geom layout.Rect) {
	c.OldGeom = c.Geom
	c.Geom = geom
	e.plan.Add(display.Place(c.Window, geom, c.BorderWidth))
}

// restackLocked redraws the monitor's bars and fixes the stacking order:
// a floating or unarranged selection rises to the top, and under an
// arranging layout the tiled clients line up below the bar in focus
// order.
func (e *Engine) restackLocked(m *state.Monitor) {
	e.pushBarLocked(m)
	sel := m.Selected()
	if sel == nil {
		return
	}
	if sel.Floating || !m.Layout().Arranged() {
		e.plan.Add(display.Raise(sel.Window))
	}
	if m.Layout().Arranged() {
		var wins []state.WindowID
		for _, id := range m.Stack {
			c := m.ClientByID(id)
			if c != nil && !c.Floating && m.Visible(c) {
				wins = append(wins, c.Window)
			}
		}
		if len(wins) > 0 {
			e.plan.Add(display.Restack(wins))
		}
	}
}

// focusLocked gives focus to c, or to the most recently used visible
// client when c is nil or off the selected tags. Focus pulls the monitor
// selection along, clears urgency, and re-runs the layout because the
// deck and monocle layouts track the selection.
func (e *Engine) focusLocked(c *state.Client) {
	sm := e.world.Selected()
	if sm == nil {
		return
	}
	if c == nil || !e.clientVisibleLocked(c) {
		c = sm.StackFallback()
	}
	if prev := sm.Selected(); prev != nil && prev != c {
		e.unfocusLocked(prev)
	}
	if c != nil {
		if cm := e.monitorOf(c); cm != nil && cm != sm {
			e.world.SelMon = cm.Num
			sm = cm
		}
		if c.Urgent {
			c.Urgent = false
			e.plan.Add(display.ClearUrgent(c.Window))
		}
		sm.StackPush(c)
		e.plan.Add(display.Border(c.Window, true))
		if !c.NeverFocus {
			e.plan.Add(display.Focus(c.Window))
		}
		sm.Sel = c.ID
	} else {
		e.plan.Add(display.ClearFocus())
		sm.Sel = ""
	}
	e.drawBarsLocked()
	e.arrangeLocked(sm)
}

// unfocusLocked drops the focus border. The selection itself is the
// caller's to change.
func (e *Engine) unfocusLocked(c *state.Client) {
	if c == nil {
		return
	}
	e.plan.Add(display.Border(c.Window, false))
}

// popLocked moves a client to the front of its partition and focuses it.
func (e *Engine) popLocked(c *state.Client) {
	m := e.monitorOf(c)
	if m == nil {
		return
	}
	m.Detach(c)
	m.Attach(c)
	e.focusLocked(c)
	e.arrangeLocked(m)
}

// sendToMonitorLocked moves a client to another monitor. The client
// adopts the target's selected tags.
func (e *Engine) sendToMonitorLocked(c *state.Client, m *state.Monitor) {
	old := e.monitorOf(c)
	if old == nil || m == nil || old == m {
		return
	}
	e.unfocusLocked(c)
	e.plan.Add(display.ClearFocus())
	old.Detach(c)
	old.StackRemove(c)
	c.Tags = m.ViewMask()
	m.Attach(c)
	m.StackPush(c)
	e.focusLocked(nil)
	e.arrangeLocked(nil)
}

// setFullscreenLocked switches fullscreen on or off. On saves the
// floating state, border and geometry and stretches the window over the
// whole output; off restores all three and re-arranges.
func (e *Engine) setFullscreenLocked(c *state.Client, fullscreen bool) {
	if c.Fullscreen == fullscreen {
		return
	}
	m := e.monitorOf(c)
	if m == nil {
		return
	}
	if fullscreen {
		e.plan.Add(display.Fullscreen(c.Window, true))
		c.Fullscreen = true
		c.OldFloating = c.Floating
		c.OldBorderWidth = c.BorderWidth
		c.BorderWidth = 0
		c.Floating = true
		e.resizeClientLocked(c, m.Screen)
		e.plan.Add(display.Raise(c.Window))
		return
	}
	e.plan.Add(display.Fullscreen(c.Window, false))
	c.Fullscreen = false
	c.Floating = c.OldFloating
	c.BorderWidth = c.OldBorderWidth
	c.Geom = c.OldGeom
	e.resizeClientLocked(c, c.Geom)
	e.arrangeLocked(m)
}

// pertagRestoreLocked brings back the marked width, layout pair and tag
// bar state remembered for the current view.
func (e *Engine) pertagRestoreLocked(m *state.Monitor) {
	pt := m.Pertag
	m.MarkedWidth = pt.MarkedWidths[pt.Cur]
	m.SelLayout = pt.SelLayouts[pt.Cur]
	m.Layouts[0] = pt.Layouts[pt.Cur][0]
	m.Layouts[1] = pt.Layouts[pt.Cur][1]
	if m.ShowTagBar != pt.ShowTagBars[pt.Cur] {
		e.toggleTagBarLocked(m)
	}
}

// toggleTagBarLocked flips the tag bar for the current view and
// re-arranges so the work area follows.
func (e *Engine) toggleTagBarLocked(m *state.Monitor) {
	m.ShowTagBar = !m.ShowTagBar
	m.Pertag.ShowTagBars[m.Pertag.Cur] = m.ShowTagBar
	e.arrangeLocked(m)
}

// drawBarsLocked publishes bar contents for every monitor.
func (e *Engine) drawBarsLocked() {
	for _, m := range e.world.Monitors {
		e.pushBarLocked(m)
	}
}

// pushBarLocked emits the monitor's current bar contents.
func (e *Engine) pushBarLocked(m *state.Monitor) {
	sm := e.world.Selected()
	bar := display.BarState{
		Monitor:    m.Num,
		Symbol:     m.Symbol,
		Names:      e.world.TagNames,
		ViewMask:   m.ViewMask(),
		Occupied:   m.OccupiedMask(),
		Urgent:     m.UrgentMask(),
		HideVacant: e.cfg.HideInactiveTags,
		ShowTagBar: m.ShowTagBar,
		TagsOnTop:  m.TagsOnTop,
		ClientBar:  m.ClientBarVisible,
		Status:     e.status,
	}
	if sel := m.Selected(); sel != nil {
		bar.Title = sel.Name
		bar.TitleFixed = sel.Hints.Fixed
		bar.TitleFloating = sel.Floating
		if m == sm {
			bar.SelTags = sel.Tags
		}
	}
	for _, c := range m.Clients {
		if !m.Visible(c) {
			continue
		}
		bar.Tabs = append(bar.Tabs, display.BarTab{
			Window:    c.Window,
			Title:     c.Name,
			OnScreen:  c.OnScreen,
			Minimized: c.Minimized,
			Urgent:    c.Urgent,
			Marked:    c.Marked,
			Selected:  c.ID == m.Sel,
		})
	}
	e.plan.Add(display.Bar(bar))
}
