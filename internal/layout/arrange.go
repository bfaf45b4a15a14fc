package layout

import "fmt"

// MinMarkedWidth and MaxMarkedWidth bound the fraction of the work area
// granted to the marked column.
const (
	MinMarkedWidth = 0.1
	MaxMarkedWidth = 0.9
)

// ClampMarkedWidth forces a marked-width fraction into its legal range.
func ClampMarkedWidth(f float64) float64 {
	if f < MinMarkedWidth {
		return MinMarkedWidth
	}
	if f > MaxMarkedWidth {
		return MaxMarkedWidth
	}
	return f
}

// Arrange computes interior frames for the tiled clients of a monitor.
// borders holds each client's border width in layout order; the first
// marked entries fill the marked column. Frames are interior geometry, so
// client i occupies frame.Width+2*borders[i] by frame.Height+2*borders[i]
// pixels on screen. Float returns nil: nothing moves.
func Arrange(k Kind, area Rect, markedWidth float64, marked int, borders []int) []Rect {
	n := len(borders)
	if n == 0 {
		return nil
	}
	switch k {
	case Monocle:
		frames := make([]Rect, n)
		for i, bw := range borders {
			frames[i] = Rect{
				X:      area.X,
				Y:      area.Y,
				Width:  area.Width - 2*bw,
				Height: area.Height - 2*bw,
			}
		}
		return frames
	case Tile:
		return splitMarked(area, markedWidth, marked, borders, true)
	case Deck:
		return splitMarked(area, markedWidth, marked, borders, false)
	}
	return nil
}

// splitMarked lays the first marked clients into a left column sized by the
// marked-width fraction and the rest into the remaining area, either as
// stacked rows (tile) or one pile (deck). Row heights divide the remaining
// space by the remaining count, so rounding remainders accumulate into the
// later rows instead of leaving a gap at the bottom.
func splitMarked(area Rect, markedWidth float64, marked int, borders []int, rows bool) []Rect {
	n := len(borders)
	if marked < 0 {
		marked = 0
	}
	mw := area.Width
	if n > marked {
		mw = 0
		if marked > 0 {
			mw = int(float64(area.Width) * ClampMarkedWidth(markedWidth))
		}
	}
	frames := make([]Rect, n)
	my, ty := 0, 0
	for i, bw := range borders {
		switch {
		case i < marked:
			h := (area.Height - my) / (min(n, marked) - i)
			frames[i] = Rect{
				X:      area.X,
				Y:      area.Y + my,
				Width:  mw - 2*bw,
				Height: h - 2*bw,
			}
			my += h
		case rows:
			h := (area.Height - ty) / (n - i)
			frames[i] = Rect{
				X:      area.X + mw,
				Y:      area.Y + ty,
				Width:  area.Width - mw - 2*bw,
				Height: h - 2*bw,
			}
			ty += h
		default:
			frames[i] = Rect{
				X:      area.X + mw,
				Y:      area.Y,
				Width:  area.Width - mw - 2*bw,
				Height: area.Height - 2*bw,
			}
		}
	}
	return frames
}

// Label renders the bar indicator for a monitor after arranging. visible
// counts every client on the selected tags, tiled counts the clients the
// layout managed, and marked is the monitor's marked count. Monocle shows
// how many clients share the pile, deck how many sit in the stack area.
func Label(k Kind, visible, tiled, marked int) string {
	switch k {
	case Monocle:
		if visible > 0 {
			return fmt.Sprintf("[%d]", visible)
		}
	case Deck:
		if dn := tiled - marked; dn > 0 {
			return fmt.Sprintf("D %d", dn)
		}
	}
	return k.Symbol()
}
