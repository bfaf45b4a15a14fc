package metrics

import (
	"sort"
	"sync"
	"time"
)

// Collector aggregates anonymous counters for command and event handling.
type Collector struct {
	mu       sync.RWMutex
	enabled  bool
	started  time.Time
	commands map[string]*CommandMetrics
	events   map[string]uint64
	arranges uint64
	applyErr uint64
}

// CommandMetrics captures per-command counters.
type CommandMetrics struct {
	Command      string    `json:"command"`
	Executed     uint64    `json:"executed"`
	Rejected     uint64    `json:"rejected"`
	LastExecuted time.Time `json:"lastExecuted,omitempty"`
	LastRejected time.Time `json:"lastRejected,omitempty"`
}

// EventMetrics captures how often one event kind arrived.
type EventMetrics struct {
	Kind  string `json:"kind"`
	Count uint64 `json:"count"`
}

// Totals aggregates counters across the whole snapshot.
type Totals struct {
	Executed    uint64 `json:"executed"`
	Rejected    uint64 `json:"rejected"`
	Events      uint64 `json:"events"`
	Arranges    uint64 `json:"arranges"`
	ApplyErrors uint64 `json:"applyErrors"`
}

// Snapshot is the serializable view of the current counters.
type Snapshot struct {
	Enabled  bool             `json:"enabled"`
	Started  time.Time        `json:"started,omitempty"`
	Totals   Totals           `json:"totals"`
	Commands []CommandMetrics `json:"commands,omitempty"`
	Events   []EventMetrics   `json:"events,omitempty"`
}

// NewCollector returns a collector with the provided opt-in state.
func NewCollector(enabled bool) *Collector {
	c := &Collector{}
	c.SetEnabled(enabled)
	return c
}

// Enabled reports whether collection is currently active.
func (c *Collector) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled toggles collection, resetting counters when enabling.
func (c *Collector) SetEnabled(enabled bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	if !enabled {
		c.commands = nil
		c.events = nil
		c.arranges = 0
		c.applyErr = 0
		c.started = time.Time{}
		return
	}
	c.started = time.Now()
	c.commands = make(map[string]*CommandMetrics)
	c.events = make(map[string]uint64)
}

// RecordCommand counts an executed command.
func (c *Collector) RecordCommand(name string) {
	c.updateCommand(name, func(m *CommandMetrics, now time.Time) {
		m.Executed++
		m.LastExecuted = now
	})
}

// RecordRejected counts a command refused as a silent no-op.
func (c *Collector) RecordRejected(name string) {
	c.updateCommand(name, func(m *CommandMetrics, now time.Time) {
		m.Rejected++
		m.LastRejected = now
	})
}

// RecordEvent counts one display event by kind.
func (c *Collector) RecordEvent(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	if c.events == nil {
		c.events = make(map[string]uint64)
	}
	c.events[kind]++
}

// RecordArrange counts one layout pass over a monitor.
func (c *Collector) RecordArrange() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		c.arranges++
	}
}

// RecordApplyError counts a failed operation batch.
func (c *Collector) RecordApplyError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		c.applyErr++
	}
}

func (c *Collector) updateCommand(name string, mutate func(*CommandMetrics, time.Time)) {
	if c == nil || mutate == nil {
		return
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	if c.commands == nil {
		c.commands = make(map[string]*CommandMetrics)
	}
	m, exists := c.commands[name]
	if !exists {
		m = &CommandMetrics{Command: name}
		c.commands[name] = m
	}
	mutate(m, now)
}

// Snapshot returns the current counters for serialization or display.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{Enabled: c.enabled}
	if !c.enabled {
		return snap
	}
	snap.Started = c.started
	snap.Totals.Arranges = c.arranges
	snap.Totals.ApplyErrors = c.applyErr
	if len(c.commands) > 0 {
		snap.Commands = make([]CommandMetrics, 0, len(c.commands))
		for _, m := range c.commands {
			if m == nil {
				continue
			}
			clone := *m
			snap.Commands = append(snap.Commands, clone)
			snap.Totals.Executed += clone.Executed
			snap.Totals.Rejected += clone.Rejected
		}
		sort.Slice(snap.Commands, func(i, j int) bool {
			return snap.Commands[i].Command < snap.Commands[j].Command
		})
	}
	if len(c.events) > 0 {
		snap.Events = make([]EventMetrics, 0, len(c.events))
		for kind, count := range c.events {
			snap.Events = append(snap.Events, EventMetrics{Kind: kind, Count: count})
			snap.Totals.Events += count
		}
		sort.Slice(snap.Events, func(i, j int) bool {
			return snap.Events[i].Kind < snap.Events[j].Kind
		})
	}
	return snap
}
