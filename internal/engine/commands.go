package engine

import (
	"fmt"

	"github.com/mx-scissortail/wasdwm/internal/display"
	"github.com/mx-scissortail/wasdwm/internal/layout"
	"github.com/mx-scissortail/wasdwm/internal/state"
	"github.com/mx-scissortail/wasdwm/internal/tags"
)

// Command is one control-plane request against the workspace model. Name
// selects the operation; the other fields carry its arguments and are
// ignored by commands that do not take them.
type Command struct {
	Name   string  `json:"name"`
	Tags   string  `json:"tags,omitempty"`
	Dir    int     `json:"dir,omitempty"`
	Index  int     `json:"index,omitempty"`
	Layout string  `json:"layout,omitempty"`
	Mode   string  `json:"mode,omitempty"`
	Width  float64 `json:"width,omitempty"`
}

// Names of every command the dispatcher accepts, for the control plane
// and CLI to enumerate.
func CommandNames() []string {
	return []string{
		"view", "toggle-view", "tag", "toggle-tag",
		"cycle-view", "shift-tag",
		"cycle-focus", "cycle-stack", "focus-client", "focus-monitor",
		"hide", "toggle-hidden",
		"push-left", "push-right",
		"set-layout", "cycle-layout",
		"set-marked-width", "adjust-marked-width", "toggle-mark",
		"toggle-floating", "toggle-fullscreen",
		"toggle-tagbar", "set-clientbar",
		"send-to-monitor", "kill", "quit",
	}
}

// dispatchCommandLocked routes one command. The boolean reports whether
// the command applied; an error means the command itself was malformed
// (unknown name or unparsable argument). Guarded commands whose
// preconditions fail return (false, nil) and leave the world untouched.
func (e *Engine) dispatchCommandLocked(cmd Command) (bool, error) {
	if cmd.Name == "quit" {
		e.Quit()
		return true, nil
	}
	if len(e.world.Monitors) == 0 {
		e.logger.Debug().Str("command", cmd.Name).Msg("command before scan, ignoring")
		return false, nil
	}

	switch cmd.Name {
	case "view":
		// An empty tag spec flips back to the previous view when
		// view toggling is enabled.
		var mask tags.Mask
		if cmd.Tags != "" {
			var err error
			mask, err = tags.Parse(cmd.Tags, e.cfg.TagNames)
			if err != nil {
				return false, err
			}
		}
		e.viewTagsLocked(mask)
		return true, nil
	case "toggle-view":
		mask, err := tags.Parse(cmd.Tags, e.cfg.TagNames)
		if err != nil {
			return false, err
		}
		return e.toggleViewLocked(mask), nil
	case "tag":
		mask, err := tags.Parse(cmd.Tags, e.cfg.TagNames)
		if err != nil {
			return false, err
		}
		return e.tagClientLocked(mask), nil
	case "toggle-tag":
		mask, err := tags.Parse(cmd.Tags, e.cfg.TagNames)
		if err != nil {
			return false, err
		}
		return e.toggleTagClientLocked(mask), nil
	case "cycle-view":
		return e.cycleViewLocked(cmd.Dir)
	case "shift-tag":
		return e.shiftTagLocked(cmd.Dir)
	case "cycle-focus":
		return e.cycleFocusLocked(cmd.Dir), nil
	case "cycle-stack":
		return e.cycleStackLocked(cmd.Dir), nil
	case "focus-client":
		return e.focusClientLocked(cmd.Index), nil
	case "focus-monitor":
		return e.focusMonitorLocked(cmd.Dir), nil
	case "hide":
		return e.hideSelectedLocked(), nil
	case "toggle-hidden":
		return e.toggleHiddenLocked(cmd.Index), nil
	case "push-left":
		return e.pushLeftLocked(), nil
	case "push-right":
		return e.pushRightLocked(), nil
	case "set-layout":
		if cmd.Layout == "" {
			return false, fmt.Errorf("set-layout needs a layout name")
		}
		kind, err := layout.ParseKind(cmd.Layout)
		if err != nil {
			return false, err
		}
		e.setLayoutLocked(kind, true)
		return true, nil
	case "cycle-layout":
		e.setLayoutLocked(0, false)
		return true, nil
	case "set-marked-width":
		return e.setMarkedWidthLocked(cmd.Width), nil
	case "adjust-marked-width":
		return e.adjustMarkedWidthLocked(cmd.Width), nil
	case "toggle-mark":
		return e.toggleMarkLocked(), nil
	case "toggle-floating":
		return e.toggleFloatingLocked(), nil
	case "toggle-fullscreen":
		return e.toggleFullscreenLocked(), nil
	case "toggle-tagbar":
		e.toggleTagBarLocked(e.world.Selected())
		return true, nil
	case "set-clientbar":
		return e.setClientBarLocked(cmd.Mode)
	case "send-to-monitor":
		return e.sendSelectedToMonitorLocked(cmd.Dir), nil
	case "kill":
		return e.killSelectedLocked(), nil
	}
	return false, fmt.Errorf("unknown command %q", cmd.Name)
}

// viewTagsLocked switches the selected monitor's view. A mask equal to
// the current view, or an empty one, flips back to the previous view
// when view toggling is enabled; otherwise the view stays and only the
// focus and arrangement refresh.
func (e *Engine) viewTagsLocked(mask tags.Mask) {
	m := e.world.Selected()
	pt := m.Pertag
	mask = mask.Clamp(e.world.NumTags())
	switch {
	case !mask.Empty() && mask != m.ViewMask():
		m.SelTags ^= 1
		pt.Prev = pt.Cur
		m.TagSet[m.SelTags] = mask
		if mask == e.world.AllTags() {
			pt.Cur = 0
		} else {
			pt.Cur = mask.Lowest() + 1
		}
	case e.cfg.ViewTagToggles:
		m.SelTags ^= 1
		pt.Cur, pt.Prev = pt.Prev, pt.Cur
	}
	e.pertagRestoreLocked(m)
	e.focusLocked(nil)
	e.arrangeLocked(m)
}

func (e *Engine) toggleViewLocked(mask tags.Mask) bool {
	m := e.world.Selected()
	pt := m.Pertag
	newset := m.ViewMask() ^ mask
	if newset.Empty() {
		return false
	}
	if newset == e.world.AllTags() {
		pt.Prev = pt.Cur
		pt.Cur = 0
	} else if pt.Cur == 0 || !newset.Has(pt.Cur-1) {
		// The current tag left the view; the lowest remaining one
		// takes over as the pertag slot.
		pt.Prev = pt.Cur
		pt.Cur = newset.Lowest() + 1
	}
	m.TagSet[m.SelTags] = newset
	e.pertagRestoreLocked(m)
	e.focusLocked(nil)
	e.arrangeLocked(m)
	return true
}

func (e *Engine) tagClientLocked(mask tags.Mask) bool {
	m := e.world.Selected()
	sel := m.Selected()
	if sel == nil || mask.Empty() {
		return false
	}
	sel.Tags = mask
	e.focusLocked(nil)
	e.arrangeLocked(m)
	return true
}

func (e *Engine) toggleTagClientLocked(mask tags.Mask) bool {
	m := e.world.Selected()
	sel := m.Selected()
	if sel == nil {
		return false
	}
	newtags := sel.Tags ^ mask
	if newtags.Empty() {
		return false
	}
	sel.Tags = newtags
	e.focusLocked(nil)
	e.arrangeLocked(m)
	return true
}

func (e *Engine) cycleViewLocked(dir int) (bool, error) {
	if dir == 0 {
		return false, fmt.Errorf("cycle-view needs a nonzero direction")
	}
	m := e.world.Selected()
	occ := m.OccupiedMask()
	if occ.Empty() {
		return false, nil
	}
	seltag, ok := e.walkOccupied(m, occ, dir)
	if !ok {
		return false, nil
	}
	e.viewTagsLocked(tags.Bit(seltag))
	return true, nil
}

func (e *Engine) shiftTagLocked(dir int) (bool, error) {
	if dir == 0 {
		return false, fmt.Errorf("shift-tag needs a nonzero direction")
	}
	m := e.world.Selected()
	occ := m.OccupiedMask()
	if occ.Empty() {
		return false, nil
	}
	seltag, ok := e.walkOccupied(m, occ, dir)
	if !ok {
		return false, nil
	}
	return e.tagClientLocked(tags.Bit(seltag)), nil
}

// walkOccupied steps from the lowest viewed tag in dir until it lands on
// an occupied tag, wrapping at the ends. The walk is bounded by the tag
// count so a stride sharing no tag with the occupied set terminates.
func (e *Engine) walkOccupied(m *state.Monitor, occ tags.Mask, dir int) (int, bool) {
	n := e.world.NumTags()
	seltag := m.ViewMask().Lowest()
	if seltag < 0 {
		seltag = 0
	}
	for i := 0; i < n; i++ {
		seltag = (seltag + dir) % n
		if seltag < 0 {
			seltag += n
		}
		if occ.Has(seltag) {
			return seltag, true
		}
	}
	return 0, false
}

// cycleFocusLocked moves the selection through tag-visible non-minimized
// clients in list order. dir > 0 walks forward from the selection and
// wraps to the head; anything else walks backward, falling back to the
// last candidate at or after the selection.
func (e *Engine) cycleFocusLocked(dir int) bool {
	m := e.world.Selected()
	sel := m.Selected()
	if sel == nil {
		return false
	}
	eligible := func(c *state.Client) bool {
		return m.Visible(c) && !c.Minimized
	}
	idx := m.IndexOf(sel)
	var c *state.Client
	if dir > 0 {
		for _, p := range m.Clients[idx+1:] {
			if eligible(p) {
				c = p
				break
			}
		}
		if c == nil {
			for _, p := range m.Clients {
				if eligible(p) {
					c = p
					break
				}
			}
		}
	} else {
		for _, p := range m.Clients[:idx] {
			if eligible(p) {
				c = p
			}
		}
		if c == nil {
			for _, p := range m.Clients[idx:] {
				if eligible(p) {
					c = p
				}
			}
		}
	}
	if c == nil {
		return false
	}
	e.focusLocked(c)
	e.restackLocked(m)
	return true
}

// cycleStackLocked cycles the selection through the deck's stacked
// column: visible clients that are off-screen and not minimized. The
// walk is anchored at the first on-screen unmarked client. Under any
// other layout it degrades to plain focus cycling.
func (e *Engine) cycleStackLocked(dir int) bool {
	m := e.world.Selected()
	if m.Layout() != layout.Deck {
		return e.cycleFocusLocked(dir)
	}
	var cur *state.Client
	for _, p := range m.Clients {
		if p.OnScreen && !p.Marked {
			cur = p
			break
		}
	}
	if cur == nil {
		return false
	}
	stacked := func(c *state.Client) bool {
		return m.Visible(c) && !c.OnScreen && !c.Minimized
	}
	idx := m.IndexOf(cur)
	var c *state.Client
	if dir > 0 {
		for _, p := range m.Clients[idx+1:] {
			if stacked(p) {
				c = p
				break
			}
		}
		if c == nil {
			for _, p := range m.Clients {
				if stacked(p) {
					c = p
					break
				}
			}
		}
	} else {
		for _, p := range m.Clients[:idx] {
			if stacked(p) {
				c = p
			}
		}
		if c == nil {
			for _, p := range m.Clients[idx:] {
				if stacked(p) {
					c = p
				}
			}
		}
	}
	if c == nil {
		return false
	}
	e.focusLocked(c)
	e.restackLocked(m)
	return true
}

// focusClientLocked focuses the idx-th tag-visible client in list order,
// counting minimized and floating ones. A minimized target is unhidden.
func (e *Engine) focusClientLocked(idx int) bool {
	m := e.world.Selected()
	if idx < 0 {
		return false
	}
	var c *state.Client
	for _, p := range m.Clients {
		if !m.Visible(p) {
			continue
		}
		if idx == 0 {
			c = p
			break
		}
		idx--
	}
	if c == nil {
		return false
	}
	if c.Minimized {
		c.Minimized = false
		e.arrangeLocked(m)
	}
	e.focusLocked(c)
	e.restackLocked(m)
	return true
}

func (e *Engine) focusMonitorLocked(dir int) bool {
	if len(e.world.Monitors) < 2 {
		return false
	}
	m := e.world.MonitorInDirection(dir)
	if m == nil || m == e.world.Selected() {
		return false
	}
	e.unfocusLocked(e.world.Selected().Selected())
	e.world.SelMon = m.Num
	e.focusLocked(nil)
	return true
}

func (e *Engine) hideSelectedLocked() bool {
	m := e.world.Selected()
	c := m.Selected()
	if c == nil {
		return false
	}
	c.Minimized = true
	m.Sel = ""
	e.unfocusLocked(c)
	e.plan.Add(display.ClearFocus())
	e.arrangeLocked(m)
	return true
}

// toggleHiddenLocked minimizes the idx-th tag-visible client, or
// restores and focuses it when it is already minimized.
func (e *Engine) toggleHiddenLocked(idx int) bool {
	m := e.world.Selected()
	if idx < 0 {
		return false
	}
	remaining := idx
	var c *state.Client
	for _, p := range m.Clients {
		if !m.Visible(p) {
			continue
		}
		if remaining == 0 {
			c = p
			break
		}
		remaining--
	}
	if c == nil {
		return false
	}
	if c.Minimized {
		return e.focusClientLocked(idx)
	}
	c.Minimized = true
	if m.Sel == c.ID {
		m.Sel = ""
		e.unfocusLocked(c)
		e.plan.Add(display.ClearFocus())
	}
	e.arrangeLocked(m)
	return true
}

// pushLeftLocked moves the selected tiled client one tiled position up
// the list, wrapping to the very end when it already leads.
func (e *Engine) pushLeftLocked() bool {
	m := e.world.Selected()
	sel := m.Selected()
	if sel == nil || sel.Floating {
		return false
	}
	if prev := m.PrevTiled(sel); prev != nil {
		m.Detach(sel)
		m.InsertAt(m.IndexOf(prev), sel)
	} else {
		m.Detach(sel)
		m.InsertAt(len(m.Clients), sel)
	}
	e.focusLocked(sel)
	e.arrangeLocked(m)
	return true
}

// pushRightLocked moves the selected tiled client one tiled position
// down the list, wrapping to the front of its partition at the end.
func (e *Engine) pushRightLocked() bool {
	m := e.world.Selected()
	sel := m.Selected()
	if sel == nil || sel.Floating {
		return false
	}
	if next := m.NextTiled(sel); next != nil {
		m.Detach(sel)
		m.InsertAt(m.IndexOf(next)+1, sel)
	} else {
		m.Detach(sel)
		m.Attach(sel)
	}
	e.focusLocked(sel)
	e.arrangeLocked(m)
	return true
}

// setLayoutLocked flips the monitor's layout slot and, when explicit,
// binds the named layout to the slot. Without an explicit layout it
// toggles between the two per-tag layouts. The choice persists in the
// pertag table.
func (e *Engine) setLayoutLocked(kind layout.Kind, explicit bool) {
	m := e.world.Selected()
	pt := m.Pertag
	if !explicit || kind != m.Layout() {
		pt.SelLayouts[pt.Cur] ^= 1
		m.SelLayout = pt.SelLayouts[pt.Cur]
	}
	if explicit {
		pt.Layouts[pt.Cur][m.SelLayout] = kind
	}
	m.Layouts[m.SelLayout] = pt.Layouts[pt.Cur][m.SelLayout]

	// One arrange leaves stale on-screen flags behind a layout swap;
	// the bar redraw and second pass settle them.
	e.arrangeLocked(m)
	e.pushBarLocked(m)
	e.arrangeLocked(m)
}

func (e *Engine) setMarkedWidthLocked(f float64) bool {
	m := e.world.Selected()
	if !m.Layout().Arranged() {
		return false
	}
	f = layout.ClampMarkedWidth(f)
	m.MarkedWidth = f
	m.Pertag.MarkedWidths[m.Pertag.Cur] = f
	e.arrangeLocked(m)
	return true
}

func (e *Engine) adjustMarkedWidthLocked(delta float64) bool {
	m := e.world.Selected()
	if !m.Layout().Arranged() {
		return false
	}
	return e.setMarkedWidthLocked(m.MarkedWidth + delta)
}

// toggleMarkLocked flips the selected client's mark and pops it to the
// front of its partition. Floating clients cannot be marked.
func (e *Engine) toggleMarkLocked() bool {
	m := e.world.Selected()
	sel := m.Selected()
	if !m.Layout().Arranged() || sel == nil || sel.Floating {
		return false
	}
	sel.Marked = !sel.Marked
	e.popLocked(sel)
	return true
}

func (e *Engine) toggleFloatingLocked() bool {
	m := e.world.Selected()
	sel := m.Selected()
	if sel == nil || sel.Fullscreen {
		return false
	}
	sel.Floating = !sel.Floating || sel.Hints.Fixed
	if sel.Floating {
		sel.BorderWidth = e.cfg.FloatBorderWidth
		e.resizeLocked(m, sel, sel.Geom, false)
	} else {
		sel.BorderWidth = e.cfg.BorderWidth
	}
	e.arrangeLocked(m)
	return true
}

func (e *Engine) toggleFullscreenLocked() bool {
	sel := e.world.Selected().Selected()
	if sel == nil {
		return false
	}
	e.setFullscreenLocked(sel, !sel.Fullscreen)
	return true
}

// setClientBarLocked sets the monitor's client bar mode by name, or
// advances it along the configured cycle when no name is given.
func (e *Engine) setClientBarLocked(name string) (bool, error) {
	m := e.world.Selected()
	if name != "" {
		mode, err := state.ParseBarMode(name)
		if err != nil {
			return false, err
		}
		m.ClientBarMode = mode
	} else if cycle := e.cfg.ClientBarCycle; len(cycle) > 0 {
		next := cycle[0]
		for i, mode := range cycle {
			if mode == m.ClientBarMode {
				next = cycle[(i+1)%len(cycle)]
				break
			}
		}
		m.ClientBarMode = next
	} else {
		m.ClientBarMode = (m.ClientBarMode + 1) % (state.BarAlways + 1)
	}
	e.arrangeLocked(m)
	return true, nil
}

func (e *Engine) sendSelectedToMonitorLocked(dir int) bool {
	sel := e.world.Selected().Selected()
	if sel == nil || len(e.world.Monitors) < 2 {
		return false
	}
	m := e.world.MonitorInDirection(dir)
	if m == nil || m == e.world.Selected() {
		return false
	}
	e.sendToMonitorLocked(sel, m)
	return true
}

func (e *Engine) killSelectedLocked() bool {
	sel := e.world.Selected().Selected()
	if sel == nil {
		return false
	}
	e.plan.Add(display.Close(sel.Window))
	return true
}
