package layout

import "fmt"

// Kind identifies the algorithm that arranges the tiled clients of a
// monitor. Float leaves every window where it is.
type Kind int

const (
	Deck Kind = iota
	Monocle
	Tile
	Float
)

var kindNames = [...]string{"deck", "monocle", "tile", "float"}

var kindSymbols = [...]string{"D  ", "[M]", "[]=", "><>"}

func (k Kind) String() string {
	if k < Deck || k > Float {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Symbol returns the default bar indicator for the layout.
func (k Kind) Symbol() string {
	if k < Deck || k > Float {
		return "???"
	}
	return kindSymbols[k]
}

// Arranged reports whether the layout manages tiled geometry.
func (k Kind) Arranged() bool { return k != Float }

// ParseKind resolves a layout name from configuration or the control plane.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return Deck, fmt.Errorf("unknown layout %q (want deck, monocle, tile or float)", name)
}
