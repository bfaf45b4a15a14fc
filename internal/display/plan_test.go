package display

import (
	"testing"

	"github.com/mx-scissortail/wasdwm/internal/layout"
	"github.com/mx-scissortail/wasdwm/internal/state"
)

func TestCoalesceKeepsLastBarPerMonitor(t *testing.T) {
	var p Plan
	p.Add(Bar(BarState{Monitor: 0, Status: "first"}))
	p.Add(Place(1, layout.Rect{X: 0, Y: 20, Width: 800, Height: 600}, 2))
	p.Add(Bar(BarState{Monitor: 1, Status: "other"}))
	p.Add(Bar(BarState{Monitor: 0, Status: "second"}))
	p.Coalesce()

	want := []OpKind{OpPlace, OpBar, OpBar}
	got := p.Kinds()
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
	if p.Ops[1].Bar.Monitor != 1 || p.Ops[1].Bar.Status != "other" {
		t.Fatalf("monitor 1 bar = %+v", p.Ops[1].Bar)
	}
	if p.Ops[2].Bar.Monitor != 0 || p.Ops[2].Bar.Status != "second" {
		t.Fatalf("monitor 0 bar = %+v, want the later update", p.Ops[2].Bar)
	}
}

func TestCoalesceWithoutBarsKeepsOrder(t *testing.T) {
	var p Plan
	p.Add(Focus(3), Hide(4, -1200, 40), Restack([]state.WindowID{3, 4}))
	p.Coalesce()
	want := []OpKind{OpFocus, OpHide, OpRestack}
	got := p.Kinds()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
}
