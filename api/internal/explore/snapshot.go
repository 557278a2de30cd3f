package explore

import (
	"context"
	"log"
)

// Snapshot is the persisted unit: robot state, visited cells and frontier.
// Field names follow the map file layout the embedded clients already read.
type Snapshot struct {
	Robot    RobotState     `json:"robot" cbor:"robot"`
	Visited  []VisitedEntry `json:"visited_positions" cbor:"visited_positions"`
	Frontier []Position     `json:"exploration_stack" cbor:"exploration_stack"`
}

// DefaultSnapshot is the state of a fresh exploration: stopped at the origin.
func DefaultSnapshot() Snapshot {
	return Snapshot{Visited: []VisitedEntry{}, Frontier: []Position{}}
}

// Store persists snapshots. Save must replace the previous snapshot atomically.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

func snapshotOf(st RobotState, g *Grid) Snapshot {
	return Snapshot{Robot: st, Visited: g.Visited.All(), Frontier: g.Frontier.Items()}
}

// grid rebuilds the in-memory grid, dropping duplicates and frontier cells
// that are already visited so a hand-edited or stale snapshot cannot break
// disjointness.
func (s Snapshot) grid() *Grid {
	g := NewGrid()
	for _, e := range s.Visited {
		g.Record(e)
	}
	dropped := 0
	for _, p := range s.Frontier {
		if !g.PushIfNew(p) {
			dropped++
		}
	}
	if dropped > 0 {
		log.Printf("explore: snapshot frontier had %d duplicate or visited cells, dropped", dropped)
	}
	return g
}
