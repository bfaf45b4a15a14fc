package display

import (
	"github.com/mx-scissortail/wasdwm/internal/layout"
	"github.com/mx-scissortail/wasdwm/internal/state"
	"github.com/mx-scissortail/wasdwm/internal/tags"
)

// OpKind names an operation sent to the display adapter.
type OpKind string

const (
	// OpPlace moves and resizes a window and echoes the geometry back to
	// the client.
	OpPlace OpKind = "place"
	// OpShow moves a window into view and marks it normal.
	OpShow OpKind = "show"
	// OpHide parks a window off screen and marks it iconic.
	OpHide OpKind = "hide"
	// OpRestack stacks the listed windows top to bottom below the bar.
	OpRestack OpKind = "restack"
	// OpRaise lifts a window above its siblings.
	OpRaise OpKind = "raise"
	// OpFocus gives a window input focus and marks it active.
	OpFocus OpKind = "focus"
	// OpClearFocus returns focus to the root window.
	OpClearFocus OpKind = "clear-focus"
	// OpBorder recolors a window border for focus state.
	OpBorder OpKind = "border"
	// OpClearUrgent clears a window's urgency hint.
	OpClearUrgent OpKind = "clear-urgent"
	// OpFullscreen announces a window's fullscreen state.
	OpFullscreen OpKind = "fullscreen"
	// OpConfigureNotify echoes current geometry without moving anything.
	OpConfigureNotify OpKind = "configure-notify"
	// OpRelease returns a window to an unmanaged state.
	OpRelease OpKind = "release"
	// OpWithdraw marks a window withdrawn.
	OpWithdraw OpKind = "withdraw"
	// OpClose asks a window to close.
	OpClose OpKind = "close"
	// OpWarpPointer moves the pointer to window-relative coordinates.
	OpWarpPointer OpKind = "warp-pointer"
	// OpBar publishes bar contents for a monitor.
	OpBar OpKind = "bar"
)

// Op is one operation for the display adapter. Fields are set per kind;
// unset fields marshal away.
type Op struct {
	Kind        OpKind           `json:"kind"`
	Window      state.WindowID   `json:"window,omitempty"`
	Geom        *layout.Rect     `json:"geom,omitempty"`
	BorderWidth int              `json:"borderWidth,omitempty"`
	X           int              `json:"x,omitempty"`
	Y           int              `json:"y,omitempty"`
	Windows     []state.WindowID `json:"windows,omitempty"`
	Focused     bool             `json:"focused,omitempty"`
	On          bool             `json:"on,omitempty"`
	Bar         *BarState        `json:"bar,omitempty"`
}

// BarState is everything the adapter needs to draw both bars of a monitor.
// SelTags marks the tags the selected client occupies; TitleFixed and
// TitleFloating drive the indicator next to the title.
type BarState struct {
	Monitor       int       `json:"monitor"`
	Symbol        string    `json:"symbol"`
	Names         []string  `json:"names"`
	ViewMask      tags.Mask `json:"viewMask"`
	Occupied      tags.Mask `json:"occupied"`
	Urgent        tags.Mask `json:"urgent"`
	SelTags       tags.Mask `json:"selTags,omitempty"`
	HideVacant    bool      `json:"hideVacant,omitempty"`
	ShowTagBar    bool      `json:"showTagBar"`
	TagsOnTop     bool      `json:"tagsOnTop"`
	ClientBar     bool      `json:"clientBar"`
	Status        string    `json:"status,omitempty"`
	Title         string    `json:"title,omitempty"`
	TitleFixed    bool      `json:"titleFixed,omitempty"`
	TitleFloating bool      `json:"titleFloating,omitempty"`
	Tabs          []BarTab  `json:"tabs,omitempty"`
}

// BarTab is one client bar entry.
type BarTab struct {
	Window    state.WindowID `json:"window"`
	Title     string         `json:"title"`
	OnScreen  bool           `json:"onScreen,omitempty"`
	Minimized bool           `json:"minimized,omitempty"`
	Urgent    bool           `json:"urgent,omitempty"`
	Marked    bool           `json:"marked,omitempty"`
	Selected  bool           `json:"selected,omitempty"`
}

// Place builds a move/resize operation with the interior geometry and
// border width.
func Place(win state.WindowID, geom layout.Rect, borderWidth int) Op {
	g := geom
	return Op{Kind: OpPlace, Window: win, Geom: &g, BorderWidth: borderWidth}
}

// Show moves a window to its stored position and marks it normal.
func Show(win state.WindowID, x, y int) Op {
	return Op{Kind: OpShow, Window: win, X: x, Y: y}
}

// Hide parks a window at the given off-screen position and marks it
// iconic.
func Hide(win state.WindowID, x, y int) Op {
	return Op{Kind: OpHide, Window: win, X: x, Y: y}
}

// Restack stacks wins top to bottom beneath the bar layer.
func Restack(wins []state.WindowID) Op {
	return Op{Kind: OpRestack, Windows: wins}
}

// Raise lifts the window to the top of the stacking order.
func Raise(win state.WindowID) Op { return Op{Kind: OpRaise, Window: win} }

// Focus gives the window input focus.
func Focus(win state.WindowID) Op { return Op{Kind: OpFocus, Window: win} }

// ClearFocus points input focus back at the root.
func ClearFocus() Op { return Op{Kind: OpClearFocus} }

// Border recolors the window border.
func Border(win state.WindowID, focused bool) Op {
	return Op{Kind: OpBorder, Window: win, Focused: focused}
}

// ClearUrgent drops the urgency hint from the window.
func ClearUrgent(win state.WindowID) Op { return Op{Kind: OpClearUrgent, Window: win} }

// Fullscreen announces the window's fullscreen state.
func Fullscreen(win state.WindowID, on bool) Op {
	return Op{Kind: OpFullscreen, Window: win, On: on}
}

// ConfigureNotify echoes the window's current geometry to its client.
func ConfigureNotify(win state.WindowID, geom layout.Rect, borderWidth int) Op {
	g := geom
	return Op{Kind: OpConfigureNotify, Window: win, Geom: &g, BorderWidth: borderWidth}
}

// Release restores the border width and withdraws the window while it
// leaves management.
func Release(win state.WindowID, borderWidth int) Op {
	return Op{Kind: OpRelease, Window: win, BorderWidth: borderWidth}
}

// Withdraw marks the window withdrawn without releasing it.
func Withdraw(win state.WindowID) Op { return Op{Kind: OpWithdraw, Window: win} }

// Close asks the window to close itself.
func Close(win state.WindowID) Op { return Op{Kind: OpClose, Window: win} }

// WarpPointer moves the pointer to window-relative coordinates.
func WarpPointer(win state.WindowID, x, y int) Op {
	return Op{Kind: OpWarpPointer, Window: win, X: x, Y: y}
}

// Bar publishes bar contents for a monitor.
func Bar(bar BarState) Op {
	b := bar
	return Op{Kind: OpBar, Bar: &b}
}
