package state

import (
	"fmt"

	"github.com/mx-scissortail/wasdwm/internal/layout"
	"github.com/mx-scissortail/wasdwm/internal/tags"
)

// BarMode controls when a monitor shows its client bar.
type BarMode int

const (
	BarNever BarMode = iota
	BarAuto
	BarAlways
)

var barModeNames = [...]string{"never", "auto", "always"}

func (b BarMode) String() string {
	if b < BarNever || b > BarAlways {
		return fmt.Sprintf("BarMode(%d)", int(b))
	}
	return barModeNames[b]
}

// ParseBarMode resolves a client bar mode name from configuration or the
// control plane.
func ParseBarMode(name string) (BarMode, error) {
	for i, n := range barModeNames {
		if n == name {
			return BarMode(i), nil
		}
	}
	return BarNever, fmt.Errorf("unknown client bar mode %q (want never, auto or always)", name)
}

// Pertag remembers per-tag view state so returning to a tag restores the
// layouts, marked width and tag bar it was last seen with. Index 0 holds
// the all-tags view; index i+1 belongs to tag i.
type Pertag struct {
	Cur          int
	Prev         int
	MarkedWidths []float64
	SelLayouts   []int
	Layouts      [][2]layout.Kind
	ShowTagBars  []bool
}

// Defaults seeds new monitors and their per-tag tables.
type Defaults struct {
	NumTags       int
	MarkedWidth   float64
	Layouts       [][2]layout.Kind // len NumTags+1, index 0 is the all-tags view
	ShowTagBar    bool
	TagsOnTop     bool
	ClientBarMode BarMode
}

// DefaultLayouts builds a uniform per-tag layout table.
func DefaultLayouts(numTags int, first, second layout.Kind) [][2]layout.Kind {
	table := make([][2]layout.Kind, numTags+1)
	for i := range table {
		table[i] = [2]layout.Kind{first, second}
	}
	return table
}

// Monitor is one output. Clients holds insertion order with floating
// clients first, then marked, then the rest; Stack holds client IDs in
// focus recency order with the most recent first.
type Monitor struct {
	Num    int
	Screen layout.Rect
	Work   layout.Rect

	TagSet    [2]tags.Mask
	SelTags   int
	Layouts   [2]layout.Kind
	SelLayout int
	Symbol    string

	MarkedWidth float64
	NumMarked   int

	ShowTagBar       bool
	TagsOnTop        bool
	ClientBarMode    BarMode
	ClientBarVisible bool

	Clients []*Client
	Stack   []string
	Sel     string

	Pertag *Pertag
}

// NewMonitor builds a monitor viewing tag 1 with the defaults' layout pair
// for that tag.
func NewMonitor(num int, screen layout.Rect, d Defaults) *Monitor {
	table := d.Layouts
	if len(table) < d.NumTags+1 {
		table = DefaultLayouts(d.NumTags, layout.Deck, layout.Monocle)
	}
	pt := &Pertag{
		Cur:          1,
		Prev:         1,
		MarkedWidths: make([]float64, d.NumTags+1),
		SelLayouts:   make([]int, d.NumTags+1),
		Layouts:      make([][2]layout.Kind, d.NumTags+1),
		ShowTagBars:  make([]bool, d.NumTags+1),
	}
	for i := 0; i <= d.NumTags; i++ {
		pt.MarkedWidths[i] = d.MarkedWidth
		pt.Layouts[i] = table[i]
		pt.ShowTagBars[i] = d.ShowTagBar
	}
	m := &Monitor{
		Num:           num,
		Screen:        screen,
		Work:          screen,
		TagSet:        [2]tags.Mask{1, 1},
		Layouts:       table[1],
		MarkedWidth:   d.MarkedWidth,
		ShowTagBar:    d.ShowTagBar,
		TagsOnTop:     d.TagsOnTop,
		ClientBarMode: d.ClientBarMode,
		Pertag:        pt,
	}
	m.Symbol = m.Layouts[0].Symbol()
	return m
}

// ViewMask returns the tag mask currently in view.
func (m *Monitor) ViewMask() tags.Mask { return m.TagSet[m.SelTags] }

// Visible reports whether the client shows on the selected tags.
func (m *Monitor) Visible(c *Client) bool { return c.Tags.Intersects(m.ViewMask()) }

// Layout returns the active layout kind.
func (m *Monitor) Layout() layout.Kind { return m.Layouts[m.SelLayout] }

// ClientByID returns the monitor's client with the given ID, or nil.
func (m *Monitor) ClientByID(id string) *Client {
	if id == "" {
		return nil
	}
	for _, c := range m.Clients {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Selected returns the selected client, or nil.
func (m *Monitor) Selected() *Client { return m.ClientByID(m.Sel) }

// Attach inserts the client at the front of its partition: floating
// clients lead the list, marked clients follow them, everything else comes
// after. Layouts rely on marked clients preceding unmarked ones.
func (m *Monitor) Attach(c *Client) {
	c.MonitorID = m.Num
	i := 0
	if !c.Floating {
		for i < len(m.Clients) {
			p := m.Clients[i]
			if p.Floating || (!c.Marked && p.Marked) {
				i++
				continue
			}
			break
		}
	}
	m.Clients = append(m.Clients, nil)
	copy(m.Clients[i+1:], m.Clients[i:])
	m.Clients[i] = c
}

// Detach removes the client from the insertion order. The focus stack and
// selection are untouched.
func (m *Monitor) Detach(c *Client) {
	for i, p := range m.Clients {
		if p == c {
			m.Clients = append(m.Clients[:i], m.Clients[i+1:]...)
			return
		}
	}
}

// IndexOf returns the client's position in the insertion order, or -1.
func (m *Monitor) IndexOf(c *Client) int {
	for i, p := range m.Clients {
		if p == c {
			return i
		}
	}
	return -1
}

// InsertAt splices the client into the insertion order at index i,
// clamping to the ends. The client must already be detached.
func (m *Monitor) InsertAt(i int, c *Client) {
	c.MonitorID = m.Num
	if i < 0 {
		i = 0
	}
	if i > len(m.Clients) {
		i = len(m.Clients)
	}
	m.Clients = append(m.Clients, nil)
	copy(m.Clients[i+1:], m.Clients[i:])
	m.Clients[i] = c
}

// StackPush moves the client to the front of the focus stack.
func (m *Monitor) StackPush(c *Client) {
	m.stackUnlink(c.ID)
	m.Stack = append(m.Stack, "")
	copy(m.Stack[1:], m.Stack)
	m.Stack[0] = c.ID
}

// StackRemove drops the client from the focus stack. When it was selected,
// selection falls to the most recent visible client that is not minimized.
func (m *Monitor) StackRemove(c *Client) {
	m.stackUnlink(c.ID)
	if m.Sel != c.ID {
		return
	}
	m.Sel = ""
	for _, id := range m.Stack {
		t := m.ClientByID(id)
		if t != nil && m.Visible(t) && !t.Minimized {
			m.Sel = id
			return
		}
	}
}

func (m *Monitor) stackUnlink(id string) {
	for i, sid := range m.Stack {
		if sid == id {
			m.Stack = append(m.Stack[:i], m.Stack[i+1:]...)
			return
		}
	}
}

// Tiled returns the clients a layout manages, in insertion order: visible,
// not floating, not minimized.
func (m *Monitor) Tiled() []*Client {
	var out []*Client
	for _, c := range m.Clients {
		if !c.Floating && m.Visible(c) && !c.Minimized {
			out = append(out, c)
		}
	}
	return out
}

// PrevTiled returns the tiled client preceding c in insertion order, or
// nil when c leads.
func (m *Monitor) PrevTiled(c *Client) *Client {
	var prev *Client
	for _, p := range m.Clients {
		if p == c {
			return prev
		}
		if !p.Floating && m.Visible(p) && !p.Minimized {
			prev = p
		}
	}
	return nil
}

// NextTiled returns the tiled client following c in insertion order, or
// nil when c trails.
func (m *Monitor) NextTiled(c *Client) *Client {
	seen := false
	for _, p := range m.Clients {
		if p == c {
			seen = true
			continue
		}
		if seen && !p.Floating && m.Visible(p) && !p.Minimized {
			return p
		}
	}
	return nil
}

// VisibleClients returns every client on the selected tags in insertion
// order, including floating and minimized ones.
func (m *Monitor) VisibleClients() []*Client {
	var out []*Client
	for _, c := range m.Clients {
		if m.Visible(c) {
			out = append(out, c)
		}
	}
	return out
}

// CountVisible returns how many clients sit on the selected tags.
func (m *Monitor) CountVisible() int {
	n := 0
	for _, c := range m.Clients {
		if m.Visible(c) {
			n++
		}
	}
	return n
}

// CountHidden returns how many visible clients are minimized.
func (m *Monitor) CountHidden() int {
	n := 0
	for _, c := range m.Clients {
		if m.Visible(c) && c.Minimized {
			n++
		}
	}
	return n
}

// StackFallback returns the most recently focused client that is visible
// and not minimized, or nil.
func (m *Monitor) StackFallback() *Client {
	for _, id := range m.Stack {
		c := m.ClientByID(id)
		if c != nil && m.Visible(c) && !c.Minimized {
			return c
		}
	}
	return nil
}

// OccupiedMask returns the union of every client's tags.
func (m *Monitor) OccupiedMask() tags.Mask {
	var occ tags.Mask
	for _, c := range m.Clients {
		occ |= c.Tags
	}
	return occ
}

// UrgentMask returns the union of urgent clients' tags.
func (m *Monitor) UrgentMask() tags.Mask {
	var urg tags.Mask
	for _, c := range m.Clients {
		if c.Urgent {
			urg |= c.Tags
		}
	}
	return urg
}

// ComputeOnScreen decides which clients the active layout keeps on screen
// and recounts the marked clients. Tile and float layouts show everything
// visible; monocle shows floaters plus the selection; deck shows floaters,
// the marked column and the selection. When the selection does not occupy
// the stack area, the most recent stack client that would otherwise be
// buried is forced on screen so the pile never shows empty.
func (m *Monitor) ComputeOnScreen() {
	m.NumMarked = 0
	for _, c := range m.Clients {
		if m.Visible(c) && c.Marked {
			m.NumMarked++
		}
	}
	sel := m.Selected()
	switch m.Layout() {
	case layout.Monocle:
		for _, c := range m.Clients {
			c.OnScreen = m.Visible(c) && !c.Minimized && (c.Floating || c == sel)
		}
		if sel == nil || sel.Floating {
			m.forceTopOfStack()
		}
	case layout.Deck:
		for _, c := range m.Clients {
			c.OnScreen = m.Visible(c) && !c.Minimized && (c.Floating || c.Marked || c == sel)
		}
		if sel == nil || sel.Marked || sel.Floating {
			m.forceTopOfStack()
		}
	default:
		for _, c := range m.Clients {
			c.OnScreen = m.Visible(c) && !c.Minimized
		}
	}
}

func (m *Monitor) forceTopOfStack() {
	for _, id := range m.Stack {
		c := m.ClientByID(id)
		if c == nil || c.OnScreen || c.Minimized || !m.Visible(c) {
			continue
		}
		c.OnScreen = true
		return
	}
}
