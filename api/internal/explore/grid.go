package explore

import "time"

// VisitedEntry is a cell that was photographed and classified.
type VisitedEntry struct {
	Position      Position  `json:"position" cbor:"position"`
	HumanDetected bool      `json:"human_detected" cbor:"human_detected"`
	ImageRef      string    `json:"image_path" cbor:"image_path"`
	ObservedAt    time.Time `json:"timestamp" cbor:"timestamp"`
}

// Sightings filters entries down to those with a person on the image,
// preserving order. The result is never nil.
func Sightings(entries []VisitedEntry) []VisitedEntry {
	out := make([]VisitedEntry, 0)
	for _, e := range entries {
		if e.HumanDetected {
			out = append(out, e)
		}
	}
	return out
}

// Visited is the registry of processed cells. Entries keep first-visit order.
type Visited struct {
	entries map[Position]VisitedEntry
	order   []Position
}

func newVisited() *Visited {
	return &Visited{entries: make(map[Position]VisitedEntry)}
}

func (v *Visited) Contains(p Position) bool {
	_, ok := v.entries[p]
	return ok
}

func (v *Visited) Get(p Position) (VisitedEntry, bool) {
	e, ok := v.entries[p]
	return e, ok
}

func (v *Visited) Len() int { return len(v.order) }

// All returns a copy of every entry.
func (v *Visited) All() []VisitedEntry {
	out := make([]VisitedEntry, 0, len(v.order))
	for _, p := range v.order {
		out = append(out, v.entries[p])
	}
	return out
}

func (v *Visited) put(e VisitedEntry) {
	if _, ok := v.entries[e.Position]; !ok {
		v.order = append(v.order, e.Position)
	}
	v.entries[e.Position] = e
}

// Frontier is the LIFO stack of cells still to explore.
type Frontier struct {
	stack []Position
	index map[Position]struct{}
}

func newFrontier() *Frontier {
	return &Frontier{index: make(map[Position]struct{})}
}

func (f *Frontier) Contains(p Position) bool {
	_, ok := f.index[p]
	return ok
}

func (f *Frontier) Len() int { return len(f.stack) }

// Pop removes and returns the most recently pushed cell.
func (f *Frontier) Pop() (Position, bool) {
	if len(f.stack) == 0 {
		return Position{}, false
	}
	p := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	delete(f.index, p)
	return p, true
}

func (f *Frontier) Peek() (Position, bool) {
	if len(f.stack) == 0 {
		return Position{}, false
	}
	return f.stack[len(f.stack)-1], true
}

// Items returns the stack bottom to top.
func (f *Frontier) Items() []Position {
	out := make([]Position, len(f.stack))
	copy(out, f.stack)
	return out
}

func (f *Frontier) push(p Position) {
	f.stack = append(f.stack, p)
	f.index[p] = struct{}{}
}

func (f *Frontier) remove(p Position) bool {
	if _, ok := f.index[p]; !ok {
		return false
	}
	delete(f.index, p)
	for i := len(f.stack) - 1; i >= 0; i-- {
		if f.stack[i] == p {
			f.stack = append(f.stack[:i], f.stack[i+1:]...)
			break
		}
	}
	return true
}

// Grid pairs the visited registry with the frontier so that every mutation
// keeps them disjoint. A position is in at most one of the two, at most once.
type Grid struct {
	Visited  *Visited
	Frontier *Frontier
}

func NewGrid() *Grid {
	return &Grid{Visited: newVisited(), Frontier: newFrontier()}
}

// Record inserts or replaces the entry for e.Position and drops the
// position from the frontier if it is queued there.
func (g *Grid) Record(e VisitedEntry) {
	g.Visited.put(e)
	g.Frontier.remove(e.Position)
}

// PushIfNew queues p unless it is already visited or queued.
func (g *Grid) PushIfNew(p Position) bool {
	if g.Visited.Contains(p) || g.Frontier.Contains(p) {
		return false
	}
	g.Frontier.push(p)
	return true
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := NewGrid()
	for _, p := range g.Visited.order {
		c.Visited.put(g.Visited.entries[p])
	}
	for _, p := range g.Frontier.stack {
		c.Frontier.push(p)
	}
	return c
}
