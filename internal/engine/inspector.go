package engine

import (
	"sync"
	"time"

	"github.com/mx-scissortail/wasdwm/internal/layout"
	"github.com/mx-scissortail/wasdwm/internal/state"
)

const historyLimit = 128

// HistoryEntry is one executed control command and its outcome:
// "applied", "ignored" for a guarded no-op, or "error: ..." for a
// malformed request.
type HistoryEntry struct {
	Time    time.Time `json:"time"`
	Command Command   `json:"command"`
	Outcome string    `json:"outcome"`
}

// commandLog keeps a bounded journal of executed commands. It carries
// its own lock so snapshots never contend with the engine mutex.
type commandLog struct {
	mu      sync.Mutex
	entries []HistoryEntry
	limit   int
}

func newCommandLog(limit int) *commandLog {
	if limit <= 0 {
		limit = historyLimit
	}
	return &commandLog{limit: limit}
}

func (l *commandLog) record(cmd Command, outcome string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.limit > 0 && len(l.entries) == l.limit {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.limit-1]
	}
	l.entries = append(l.entries, HistoryEntry{
		Time:    time.Now(),
		Command: cmd,
		Outcome: outcome,
	})
}

func (l *commandLog) snapshot() []HistoryEntry {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return nil
	}
	return append([]HistoryEntry(nil), l.entries...)
}

// History returns the recent command journal, oldest first.
func (e *Engine) History() []HistoryEntry {
	return e.history.snapshot()
}

// ClientSnapshot is one client in a world snapshot.
type ClientSnapshot struct {
	ID          string         `json:"id"`
	Window      state.WindowID `json:"window"`
	Title       string         `json:"title"`
	Class       string         `json:"class,omitempty"`
	Instance    string         `json:"instance,omitempty"`
	Tags        string         `json:"tags"`
	Geom        layout.Rect    `json:"geom"`
	BorderWidth int            `json:"borderWidth"`
	Floating    bool           `json:"floating,omitempty"`
	Fullscreen  bool           `json:"fullscreen,omitempty"`
	Minimized   bool           `json:"minimized,omitempty"`
	Marked      bool           `json:"marked,omitempty"`
	Urgent      bool           `json:"urgent,omitempty"`
	OnScreen    bool           `json:"onScreen,omitempty"`
	Selected    bool           `json:"selected,omitempty"`
}

// MonitorSnapshot is one monitor in a world snapshot. Clients appear in
// list order; Stack holds client IDs in focus recency order.
type MonitorSnapshot struct {
	Num         int              `json:"num"`
	Screen      layout.Rect      `json:"screen"`
	Work        layout.Rect      `json:"work"`
	View        string           `json:"view"`
	Layout      string           `json:"layout"`
	Symbol      string           `json:"symbol"`
	MarkedWidth float64          `json:"markedWidth"`
	ShowTagBar  bool             `json:"showTagBar"`
	ClientBar   string           `json:"clientBar"`
	Selected    bool             `json:"selected,omitempty"`
	Clients     []ClientSnapshot `json:"clients,omitempty"`
	Stack       []string         `json:"stack,omitempty"`
}

// WorldSnapshot is a point-in-time copy of the managed world for the
// control plane.
type WorldSnapshot struct {
	Tags     []string          `json:"tags"`
	Status   string            `json:"status"`
	Monitors []MonitorSnapshot `json:"monitors"`
}

// Snapshot captures the world under the engine lock.
func (e *Engine) Snapshot() WorldSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := WorldSnapshot{
		Tags:   append([]string(nil), e.world.TagNames...),
		Status: e.status,
	}
	for _, m := range e.world.Monitors {
		ms := MonitorSnapshot{
			Num:         m.Num,
			Screen:      m.Screen,
			Work:        m.Work,
			View:        m.ViewMask().Format(e.world.TagNames),
			Layout:      m.Layout().String(),
			Symbol:      m.Symbol,
			MarkedWidth: m.MarkedWidth,
			ShowTagBar:  m.ShowTagBar,
			ClientBar:   m.ClientBarMode.String(),
			Selected:    m == e.world.Selected(),
			Stack:       append([]string(nil), m.Stack...),
		}
		for _, c := range m.Clients {
			ms.Clients = append(ms.Clients, ClientSnapshot{
				ID:          c.ID,
				Window:      c.Window,
				Title:       c.Name,
				Class:       c.Class,
				Instance:    c.Instance,
				Tags:        c.Tags.Format(e.world.TagNames),
				Geom:        c.Geom,
				BorderWidth: c.BorderWidth,
				Floating:    c.Floating,
				Fullscreen:  c.Fullscreen,
				Minimized:   c.Minimized,
				Marked:      c.Marked,
				Urgent:      c.Urgent,
				OnScreen:    c.OnScreen,
				Selected:    c.ID == m.Sel,
			})
		}
		snap.Monitors = append(snap.Monitors, ms)
	}
	return snap
}
