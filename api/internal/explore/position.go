package explore

import "fmt"

// Position is a cell address on the exploration grid.
type Position struct {
	X int `json:"x" cbor:"x"`
	Y int `json:"y" cbor:"y"`
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Neighbors returns the 4-neighbourhood of p in a fixed order:
// (x+1,y), (x-1,y), (x,y+1), (x,y-1). DFS order depends on it.
func (p Position) Neighbors() [4]Position {
	return [4]Position{
		{X: p.X + 1, Y: p.Y},
		{X: p.X - 1, Y: p.Y},
		{X: p.X, Y: p.Y + 1},
		{X: p.X, Y: p.Y - 1},
	}
}
