package engine

import (
	"github.com/google/uuid"

	"github.com/mx-scissortail/wasdwm/internal/display"
	"github.com/mx-scissortail/wasdwm/internal/hints"
	"github.com/mx-scissortail/wasdwm/internal/layout"
	"github.com/mx-scissortail/wasdwm/internal/rules"
	"github.com/mx-scissortail/wasdwm/internal/state"
)

// brokenTitle stands in for clients that never set a name.
const brokenTitle = "broken"

// scanLocked builds the world from the startup inventory. Plain windows
// are managed before transients so every transient finds its parent.
func (e *Engine) scanLocked(p display.ScanPayload) {
	e.syncMonitorsLocked(p.Monitors)
	e.focusLocked(nil)
	for _, info := range p.Windows {
		if info.TransientFor == 0 {
			e.manageLocked(info)
		}
	}
	for _, info := range p.Windows {
		if info.TransientFor != 0 {
			e.manageLocked(info)
		}
	}
	e.logger.Info().
		Int("monitors", len(e.world.Monitors)).
		Int("windows", len(p.Windows)).
		Msg("scan complete")
}

func (e *Engine) monitorsChangedLocked(infos []display.MonitorInfo) {
	if len(infos) == 0 {
		e.logger.Warn().Msg("monitor change with no outputs, ignoring")
		return
	}
	if e.syncMonitorsLocked(infos) {
		e.focusLocked(nil)
		e.arrangeLocked(nil)
	}
}

// syncMonitorsLocked reconciles the monitor list with the reported
// outputs. Extra monitors at the tail disappear and their clients move to
// the first monitor, keeping their tags. Reports whether anything
// changed.
func (e *Engine) syncMonitorsLocked(infos []display.MonitorInfo) bool {
	dirty := false
	for len(e.world.Monitors) < len(infos) {
		num := len(e.world.Monitors)
		screen := layout.Rect{
			X: infos[num].X, Y: infos[num].Y,
			Width: infos[num].Width, Height: infos[num].Height,
		}
		m := state.NewMonitor(num, screen, e.cfg.Defaults)
		e.world.Monitors = append(e.world.Monitors, m)
		e.updateBarAreaLocked(m)
		dirty = true
	}
	for len(e.world.Monitors) > len(infos) && len(e.world.Monitors) > 1 {
		last := e.world.Monitors[len(e.world.Monitors)-1]
		first := e.world.Monitors[0]
		for len(last.Clients) > 0 {
			c := last.Clients[0]
			last.Detach(c)
			last.StackRemove(c)
			first.Attach(c)
			first.StackPush(c)
		}
		if e.world.SelMon == last.Num {
			e.world.SelMon = 0
		}
		e.world.Monitors = e.world.Monitors[:len(e.world.Monitors)-1]
		dirty = true
	}
	for i, m := range e.world.Monitors {
		screen := layout.Rect{
			X: infos[i].X, Y: infos[i].Y,
			Width: infos[i].Width, Height: infos[i].Height,
		}
		if m.Screen != screen {
			m.Screen = screen
			e.updateBarAreaLocked(m)
			dirty = true
		}
	}
	if e.world.SelMon >= len(e.world.Monitors) {
		e.world.SelMon = 0
	}
	return dirty
}

// manageLocked takes a new window under management: placement against the
// monitor bounds, rules or transient inheritance for tags and monitor,
// then attach, arrange and focus.
func (e *Engine) manageLocked(info display.WindowInfo) {
	if c, _ := e.world.ClientByWindow(info.Window); c != nil {
		return
	}
	sm := e.world.Selected()
	if sm == nil {
		return
	}
	c := &state.Client{
		ID:           uuid.NewString(),
		Window:       info.Window,
		Name:         info.Title,
		Class:        info.Class,
		Instance:     info.Instance,
		TransientFor: info.TransientFor,
		OnScreen:     true,
	}
	if c.Name == "" {
		c.Name = brokenTitle
	}
	var parent *state.Client
	if info.TransientFor != 0 {
		parent, _ = e.world.ClientByWindow(info.TransientFor)
	}
	m := sm
	if parent != nil {
		if pm := e.monitorOf(parent); pm != nil {
			m = pm
		}
		c.Tags = parent.Tags
	} else {
		res := rules.Apply(e.cfg.Rules, c.Class, c.Instance, c.Name)
		c.Floating = res.Floating
		if rm := e.world.MonitorByNum(res.Monitor); rm != nil {
			m = rm
		}
		c.Tags = res.Tags.Clamp(e.world.NumTags())
		if c.Tags.Empty() {
			c.Tags = m.ViewMask()
		}
	}
	c.MonitorID = m.Num

	c.Geom = layout.Rect{X: info.X, Y: info.Y, Width: info.Width, Height: info.Height}
	c.BorderWidth = info.BorderWidth
	c.SaveGeom()
	if c.Geom.X+c.Geom.Width > m.Screen.Right() {
		c.Geom.X = m.Screen.Right() - c.Geom.Width
	}
	if c.Geom.Y+c.Geom.Height > m.Screen.Bottom() {
		c.Geom.Y = m.Screen.Bottom() - c.Geom.Height
	}
	c.Geom.X = max(c.Geom.X, m.Screen.X)
	// Only fix the y offset when the client center could cover a top bar.
	minY := m.Screen.Y
	center := c.Geom.X + c.Geom.Width/2
	if m.ShowTagBar && m.TagsOnTop && center >= m.Work.X && center < m.Work.Right() {
		minY = e.cfg.BarHeight
	}
	c.Geom.Y = max(c.Geom.Y, minY)

	if c.Floating || parent != nil {
		c.BorderWidth = e.cfg.FloatBorderWidth
	} else {
		c.BorderWidth = e.cfg.BorderWidth
	}
	e.plan.Add(display.ConfigureNotify(c.Window, c.Geom, c.BorderWidth))

	if info.Fullscreen {
		e.setFullscreenLocked(c, true)
	}
	if info.Dialog {
		c.Floating = true
	}
	c.Hints = hints.FromRaw(info.Hints)
	c.Urgent = info.Urgent
	c.NeverFocus = info.NeverFocus
	if !c.Floating {
		c.Floating = parent != nil || c.Hints.Fixed
		c.OldFloating = c.Floating
	}
	if c.Floating {
		e.plan.Add(display.Raise(c.Window))
	}
	m.Attach(c)
	m.StackPush(c)
	if m == sm {
		e.unfocusLocked(sm.Selected())
	}
	m.Sel = c.ID
	e.arrangeLocked(m)
	if e.cfg.FollowNewWindows && !c.Tags.Intersects(m.ViewMask()) {
		e.viewTagsLocked(c.Tags)
	}
	e.restackLocked(e.world.Selected())
	e.focusLocked(c)
	e.logger.Debug().
		Uint64("window", uint64(c.Window)).
		Str("class", c.Class).
		Str("tags", c.Tags.Format(e.world.TagNames)).
		Int("monitor", m.Num).
		Bool("floating", c.Floating).
		Msg("managed")
}

// unmanageLocked removes a client. When the window still exists its
// original border comes back and it withdraws; a destroyed window only
// leaves the model.
func (e *Engine) unmanageLocked(c *state.Client, destroyed bool) {
	m := e.monitorOf(c)
	if m == nil {
		return
	}
	m.Detach(c)
	m.StackRemove(c)
	if !destroyed {
		e.plan.Add(display.Release(c.Window, c.OldBorderWidth))
	}
	e.focusLocked(nil)
	e.arrangeLocked(m)
	e.logger.Debug().Uint64("window", uint64(c.Window)).Bool("destroyed", destroyed).Msg("unmanaged")
}

func (e *Engine) unmappedLocked(p display.UnmapPayload) {
	c, _ := e.world.ClientByWindow(p.Window)
	if c == nil {
		return
	}
	if p.Synthetic {
		e.plan.Add(display.Withdraw(c.Window))
		return
	}
	e.unmanageLocked(c, false)
}

func (e *Engine) titleChangedLocked(p display.TitlePayload) {
	c, m := e.world.ClientByWindow(p.Window)
	if c == nil {
		return
	}
	c.Name = p.Title
	if c.Name == "" {
		c.Name = brokenTitle
	}
	e.pushBarLocked(m)
}

func (e *Engine) wmHintsChangedLocked(p display.WMHintsPayload) {
	c, m := e.world.ClientByWindow(p.Window)
	if c == nil {
		return
	}
	// An urgency hint on the selected client is answered, not recorded.
	if m == e.world.Selected() && c.ID == m.Sel && p.Urgent {
		e.plan.Add(display.ClearUrgent(c.Window))
	} else {
		c.Urgent = p.Urgent
	}
	c.NeverFocus = p.NeverFocus
	e.drawBarsLocked()
}

func (e *Engine) transientChangedLocked(p display.TransientPayload) {
	c, m := e.world.ClientByWindow(p.Window)
	if c == nil {
		return
	}
	c.TransientFor = p.TransientFor
	if c.Floating || p.TransientFor == 0 {
		return
	}
	if parent, _ := e.world.ClientByWindow(p.TransientFor); parent != nil {
		c.Floating = true
		e.arrangeLocked(m)
	}
}

func (e *Engine) typeChangedLocked(p display.TypePayload) {
	c, _ := e.world.ClientByWindow(p.Window)
	if c == nil {
		return
	}
	if p.Fullscreen {
		e.setFullscreenLocked(c, true)
	}
	if p.Dialog {
		c.Floating = true
	}
}

// configureRequestLocked answers a client-initiated configure. Floating
// clients (and every client under the float layout) get what they asked
// for, clamped to their monitor; tiled clients only get their current
// geometry echoed back.
func (e *Engine) configureRequestLocked(p display.ConfigureRequestPayload) {
	c, m := e.world.ClientByWindow(p.Window)
	if c == nil {
		return
	}
	sm := e.world.Selected()
	switch {
	case p.HasBorder:
		c.BorderWidth = p.BorderWidth
	case c.Floating || !sm.Layout().Arranged():
		if p.HasX {
			c.OldGeom.X = c.Geom.X
			c.Geom.X = m.Screen.X + p.X
		}
		if p.HasY {
			c.OldGeom.Y = c.Geom.Y
			c.Geom.Y = m.Screen.Y + p.Y
		}
		if p.HasWidth {
			c.OldGeom.Width = c.Geom.Width
			c.Geom.Width = p.Width
		}
		if p.HasHeight {
			c.OldGeom.Height = c.Geom.Height
			c.Geom.Height = p.Height
		}
		if c.Geom.X+c.Geom.Width > m.Screen.Right() && c.Floating {
			c.Geom.X = m.Screen.X + (m.Screen.Width/2 - c.TotalWidth()/2)
		}
		if c.Geom.Y+c.Geom.Height > m.Screen.Bottom() && c.Floating {
			c.Geom.Y = m.Screen.Y + (m.Screen.Height/2 - c.TotalHeight()/2)
		}
		if (p.HasX || p.HasY) && !p.HasWidth && !p.HasHeight {
			e.plan.Add(display.ConfigureNotify(c.Window, c.Geom, c.BorderWidth))
		}
		if m.Visible(c) {
			e.plan.Add(display.Place(c.Window, c.Geom, c.BorderWidth))
		}
	default:
		e.plan.Add(display.ConfigureNotify(c.Window, c.Geom, c.BorderWidth))
	}
}

func (e *Engine) fullscreenRequestLocked(p display.FullscreenPayload) {
	c, _ := e.world.ClientByWindow(p.Window)
	if c == nil {
		return
	}
	switch p.Action {
	case display.FullscreenAdd:
		e.setFullscreenLocked(c, true)
	case display.FullscreenRemove:
		e.setFullscreenLocked(c, false)
	case display.FullscreenToggle:
		e.setFullscreenLocked(c, !c.Fullscreen)
	}
}

// activateLocked answers an activation request: an off-view client pulls
// its tags into view on its own monitor, then rises to the front.
func (e *Engine) activateLocked(win state.WindowID) {
	c, m := e.world.ClientByWindow(win)
	if c == nil {
		return
	}
	if !m.Visible(c) {
		m.SelTags ^= 1
		m.TagSet[m.SelTags] = c.Tags
	}
	e.popLocked(c)
}

// enterLocked follows the pointer: crossing onto another monitor moves
// the selection there, and crossing into an unselected client focuses it.
func (e *Engine) enterLocked(p display.EnterPayload) {
	sm := e.world.Selected()
	var c *state.Client
	var m *state.Monitor
	if p.Window != 0 {
		c, m = e.world.ClientByWindow(p.Window)
	}
	if m == nil {
		m = e.world.MonitorForRect(layout.Rect{X: p.X, Y: p.Y, Width: 1, Height: 1})
	}
	if m != sm {
		e.unfocusLocked(sm.Selected())
		e.plan.Add(display.ClearFocus())
		e.world.SelMon = m.Num
	} else if c == nil || c.ID == sm.Sel {
		return
	}
	e.focusLocked(c)
}

// focusInLocked re-asserts the model's selection when the display hands
// focus elsewhere.
func (e *Engine) focusInLocked(win state.WindowID) {
	sm := e.world.Selected()
	sel := sm.Selected()
	if sel != nil && sel.Window != win {
		e.focusLocked(sel)
	}
}

// rootMotionLocked tracks which monitor the pointer roams and shifts the
// selection when it crosses. The first report only seeds the tracking.
func (e *Engine) rootMotionLocked(p display.MotionPayload) {
	m := e.world.MonitorForRect(layout.Rect{X: p.X, Y: p.Y, Width: 1, Height: 1})
	if m == nil {
		return
	}
	if e.motionMon >= 0 && m.Num != e.motionMon {
		sm := e.world.Selected()
		e.unfocusLocked(sm.Selected())
		e.plan.Add(display.ClearFocus())
		e.world.SelMon = m.Num
		e.focusLocked(nil)
	}
	e.motionMon = m.Num
}
