// Package display is the boundary to the display adapter: the event
// stream coming in and the operation batches going out. The adapter owns
// the native display connection; everything here is plain data.
package display

import (
	"encoding/json"
	"fmt"

	"github.com/mx-scissortail/wasdwm/internal/hints"
	"github.com/mx-scissortail/wasdwm/internal/state"
)

// Kind names an event from the display adapter.
type Kind string

const (
	// KindScan delivers the full monitor and window inventory on startup.
	KindScan Kind = "scan"
	// KindMonitorsChanged reports a changed output topology.
	KindMonitorsChanged Kind = "monitors-changed"
	// KindWindowCreated reports a new manageable window.
	KindWindowCreated Kind = "window-created"
	// KindWindowDestroyed reports a window that no longer exists.
	KindWindowDestroyed Kind = "window-destroyed"
	// KindWindowUnmapped reports a window withdrawing from view.
	KindWindowUnmapped Kind = "window-unmapped"
	// KindTitleChanged reports a window title update.
	KindTitleChanged Kind = "title-changed"
	// KindHintsChanged reports new size hints.
	KindHintsChanged Kind = "hints-changed"
	// KindWMHintsChanged reports urgency or input hint updates.
	KindWMHintsChanged Kind = "wmhints-changed"
	// KindTransientChanged reports a new transient-for relation.
	KindTransientChanged Kind = "transient-changed"
	// KindTypeChanged reports window type or fullscreen property updates.
	KindTypeChanged Kind = "type-changed"
	// KindConfigureRequest reports a client asking for new geometry.
	KindConfigureRequest Kind = "configure-request"
	// KindFullscreenRequest reports a client asking to change fullscreen.
	KindFullscreenRequest Kind = "fullscreen-request"
	// KindActivate reports an activation request for a window.
	KindActivate Kind = "activate"
	// KindEnter reports the pointer entering a window, or the root when
	// Window is zero.
	KindEnter Kind = "enter"
	// KindFocusIn reports the display giving focus to a window.
	KindFocusIn Kind = "focus-in"
	// KindRootMotion reports pointer motion over the root window.
	KindRootMotion Kind = "root-motion"
	// KindStatusText reports new status bar text.
	KindStatusText Kind = "status-text"
	// KindBeginMove starts an interactive move of a window.
	KindBeginMove Kind = "begin-move"
	// KindBeginResize starts an interactive resize of a window.
	KindBeginResize Kind = "begin-resize"
	// KindDragMotion reports pointer motion during an interactive drag.
	KindDragMotion Kind = "drag-motion"
	// KindDragEnd finishes an interactive drag.
	KindDragEnd Kind = "drag-end"
)

// Event is one message from the display adapter.
type Event struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// DecodeInto unmarshals the event payload.
func (e Event) DecodeInto(dst any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s carries no payload", e.Kind)
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Kind, err)
	}
	return nil
}

// NewEvent builds an event carrying an encoded payload.
func NewEvent(kind Kind, payload any) (Event, error) {
	if payload == nil {
		return Event{Kind: kind}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Event{Kind: kind, Data: data}, nil
}

// MustEvent is NewEvent for static payloads in tests and replay fixtures.
func MustEvent(kind Kind, payload any) Event {
	ev, err := NewEvent(kind, payload)
	if err != nil {
		panic(err)
	}
	return ev
}

// MonitorInfo describes one output.
type MonitorInfo struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowInfo is the attribute set the adapter reads off a window before it
// is managed.
type WindowInfo struct {
	Window       state.WindowID `json:"window"`
	X            int            `json:"x"`
	Y            int            `json:"y"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	BorderWidth  int            `json:"borderWidth"`
	Title        string         `json:"title,omitempty"`
	Class        string         `json:"class,omitempty"`
	Instance     string         `json:"instance,omitempty"`
	TransientFor state.WindowID `json:"transientFor,omitempty"`
	Hints        hints.Raw      `json:"hints"`
	Urgent       bool           `json:"urgent,omitempty"`
	NeverFocus   bool           `json:"neverFocus,omitempty"`
	Dialog       bool           `json:"dialog,omitempty"`
	Fullscreen   bool           `json:"fullscreen,omitempty"`
}

// ScanPayload is the full inventory delivered at startup.
type ScanPayload struct {
	Monitors []MonitorInfo `json:"monitors"`
	Windows  []WindowInfo  `json:"windows"`
}

// MonitorsPayload carries a changed output topology.
type MonitorsPayload struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// WindowPayload names a single window.
type WindowPayload struct {
	Window state.WindowID `json:"window"`
}

// UnmapPayload reports an unmap; Synthetic marks an ICCCM synthetic unmap
// used by clients moving to the withdrawn state.
type UnmapPayload struct {
	Window    state.WindowID `json:"window"`
	Synthetic bool           `json:"synthetic,omitempty"`
}

// TitlePayload carries a window title update.
type TitlePayload struct {
	Window state.WindowID `json:"window"`
	Title  string         `json:"title"`
}

// HintsPayload carries new raw size hints.
type HintsPayload struct {
	Window state.WindowID `json:"window"`
	Hints  hints.Raw      `json:"hints"`
}

// WMHintsPayload carries urgency and input hint updates.
type WMHintsPayload struct {
	Window     state.WindowID `json:"window"`
	Urgent     bool           `json:"urgent"`
	NeverFocus bool           `json:"neverFocus"`
}

// TransientPayload carries a transient-for relation.
type TransientPayload struct {
	Window       state.WindowID `json:"window"`
	TransientFor state.WindowID `json:"transientFor"`
}

// TypePayload carries window type and fullscreen property state.
type TypePayload struct {
	Window     state.WindowID `json:"window"`
	Dialog     bool           `json:"dialog,omitempty"`
	Fullscreen bool           `json:"fullscreen,omitempty"`
}

// ConfigureRequestPayload is a client-initiated geometry request. The Has
// flags mark which fields the client actually set.
type ConfigureRequestPayload struct {
	Window      state.WindowID `json:"window"`
	X           int            `json:"x,omitempty"`
	Y           int            `json:"y,omitempty"`
	Width       int            `json:"width,omitempty"`
	Height      int            `json:"height,omitempty"`
	BorderWidth int            `json:"borderWidth,omitempty"`
	HasX        bool           `json:"hasX,omitempty"`
	HasY        bool           `json:"hasY,omitempty"`
	HasWidth    bool           `json:"hasWidth,omitempty"`
	HasHeight   bool           `json:"hasHeight,omitempty"`
	HasBorder   bool           `json:"hasBorder,omitempty"`
}

// Fullscreen request actions follow the EWMH client message values.
const (
	FullscreenRemove = 0
	FullscreenAdd    = 1
	FullscreenToggle = 2
)

// FullscreenPayload is a client asking to change its fullscreen state.
type FullscreenPayload struct {
	Window state.WindowID `json:"window"`
	Action int            `json:"action"`
}

// EnterPayload reports a pointer crossing. X and Y are root coordinates;
// Window zero means the pointer entered the root window.
type EnterPayload struct {
	Window state.WindowID `json:"window"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
}

// MotionPayload carries root-relative pointer coordinates.
type MotionPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// StatusPayload carries the root window name used as status text.
type StatusPayload struct {
	Text string `json:"text"`
}

// DragPayload starts an interactive move or resize.
type DragPayload struct {
	Window state.WindowID `json:"window"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
}
