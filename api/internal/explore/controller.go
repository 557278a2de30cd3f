package explore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Action tells the movement client what to do after a position report.
type Action string

const (
	ActionAwaitImage Action = "await_image"
	ActionContinue   Action = "continue"
)

// Status is the read-only view returned by QueryStatus, Start and Stop.
// SuggestedNext is serialised as next_move, the key the robot firmware polls.
type Status struct {
	CurrentPosition     Position  `json:"current_position"`
	IsRunning           bool      `json:"is_running"`
	WaitingForImage     bool      `json:"waiting_for_image"`
	ManualStop          bool      `json:"manual_stop"`
	NeedsImage          bool      `json:"needs_image"`
	Phase               Phase     `json:"state"`
	SuggestedNext       *Position `json:"next_move"`
	ExplorationComplete bool      `json:"exploration_complete"`
	VisitedCount        int       `json:"visited_count"`
	FrontierCount       int       `json:"frontier_count"`
}

type PositionResult struct {
	Action   Action   `json:"action"`
	Position Position `json:"position"`
}

// ImageTicket identifies the gate opening an image is meant for.
type ImageTicket struct {
	Position Position
	Epoch    uint64
}

type ImageResult struct {
	Position         Position `json:"position"`
	HumanDetected    bool     `json:"human_detected"`
	NewFrontierCount int      `json:"new_frontier_count"`
	Running          bool     `json:"is_running"`
}

type MoveResult struct {
	Next                *Position `json:"next_move"`
	ExplorationComplete bool      `json:"exploration_complete"`
	Remaining           int       `json:"remaining_positions"`
}

// MapView is everything needed to draw the explored area.
type MapView struct {
	Visited  []VisitedEntry `json:"visited_positions"`
	Frontier []Position     `json:"exploration_stack"`
}

type Option func(*Controller)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns the robot state, visited registry and frontier. Every
// operation runs under mu and is applied to a copy that is swapped in only
// after the store accepted it.
type Controller struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time

	robot RobotState
	grid  *Grid
}

// Open loads the last snapshot from store. A missing or undecodable snapshot
// starts a fresh exploration; any other load error is returned.
func Open(ctx context.Context, store Store, opts ...Option) (*Controller, error) {
	c := &Controller{store: store, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	snap, err := store.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSnapshot):
		snap = DefaultSnapshot()
	case errors.Is(err, ErrCorruptSnapshot):
		log.Printf("explore: %v; starting from empty state", err)
		snap = DefaultSnapshot()
	default:
		return nil, fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}
	c.robot = snap.Robot
	c.grid = snap.grid()
	return c, nil
}

// txn runs fn against copies of the state. If fn reports a change the copy is
// persisted and then installed. Caller must hold c.mu.
func (c *Controller) txn(ctx context.Context, fn func(st *RobotState, g *Grid) (bool, error)) error {
	st := c.robot
	g := c.grid.Clone()
	changed, err := fn(&st, g)
	if err != nil || !changed {
		return err
	}
	st.LastUpdate = c.now()
	if err := c.store.Save(ctx, snapshotOf(st, g)); err != nil {
		return fmt.Errorf("%w: save: %v", ErrPersistence, err)
	}
	c.robot, c.grid = st, g
	return nil
}

// Start begins or resumes exploration. An empty frontier is seeded with the
// neighbours of the current cell.
func (c *Controller) Start(ctx context.Context) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.txn(ctx, func(st *RobotState, g *Grid) (bool, error) {
		st.IsRunning = true
		st.ManualStop = false
		if g.Frontier.Len() == 0 {
			for _, n := range st.Current.Neighbors() {
				g.PushIfNew(n)
			}
		}
		if g.Visited.Contains(st.Current) {
			st.WaitingForImage = false
		} else {
			st.armGate()
		}
		return true, nil
	})
	if err != nil {
		return Status{}, err
	}
	log.Printf("explore: started at %s", c.robot.Current)
	return c.status(), nil
}

// Stop halts exploration. The manual stop survives image processing; only
// Start or a new position clears it.
func (c *Controller) Stop(ctx context.Context) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.txn(ctx, func(st *RobotState, _ *Grid) (bool, error) {
		st.IsRunning = false
		st.ManualStop = true
		return true, nil
	})
	if err != nil {
		return Status{}, err
	}
	log.Printf("explore: stopped at %s", c.robot.Current)
	return c.status(), nil
}

// ReportPosition records where the robot is. Reporting the current cell again
// is a no-op so retried requests cannot re-arm the gate or undo a stop.
func (c *Controller) ReportPosition(ctx context.Context, p Position) (PositionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := PositionResult{Action: ActionContinue, Position: p}
	err := c.txn(ctx, func(st *RobotState, _ *Grid) (bool, error) {
		if st.Current == p {
			return false, nil
		}
		st.Current = p
		st.ManualStop = false
		st.armGate()
		res.Action = ActionAwaitImage
		return true, nil
	})
	if err != nil {
		return PositionResult{}, err
	}
	if res.Action == ActionAwaitImage {
		log.Printf("explore: moved to %s, waiting for image", p)
	}
	return res, nil
}

// PrepareImage checks that an image is wanted and returns the ticket the
// result must be committed with. It does not change state.
func (c *Controller) PrepareImage() (ImageTicket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.robot.WaitingForImage {
		return ImageTicket{}, ErrStaleSubmission
	}
	return ImageTicket{Position: c.robot.Current, Epoch: c.robot.GateEpoch}, nil
}

// SubmitImage commits a classified image for the gate identified by t.
// It fails with ErrStaleSubmission if the gate was closed or re-armed
// after the ticket was taken.
func (c *Controller) SubmitImage(ctx context.Context, t ImageTicket, humanDetected bool, imageRef string) (ImageResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := ImageResult{Position: t.Position, HumanDetected: humanDetected}
	err := c.txn(ctx, func(st *RobotState, g *Grid) (bool, error) {
		if !st.WaitingForImage || st.GateEpoch != t.Epoch || st.Current != t.Position {
			return false, ErrStaleSubmission
		}
		g.Record(VisitedEntry{
			Position:      st.Current,
			HumanDetected: humanDetected,
			ImageRef:      imageRef,
			ObservedAt:    c.now(),
		})
		for _, n := range st.Current.Neighbors() {
			if g.PushIfNew(n) {
				res.NewFrontierCount++
			}
		}
		st.WaitingForImage = false
		if !st.ManualStop {
			st.IsRunning = true
		}
		return true, nil
	})
	if err != nil {
		return ImageResult{}, err
	}
	res.Running = c.robot.IsRunning
	log.Printf("explore: image processed at %s human=%t new_frontier=%d", t.Position, humanDetected, res.NewFrontierCount)
	return res, nil
}

// RequestNextMove pops the next frontier cell. An empty frontier is reported
// as complete; more cells may still be added by later images.
func (c *Controller) RequestNextMove(ctx context.Context) (MoveResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.robot.IsRunning {
		return MoveResult{}, ErrNotRunning
	}
	var res MoveResult
	err := c.txn(ctx, func(_ *RobotState, g *Grid) (bool, error) {
		p, ok := g.Frontier.Pop()
		if !ok {
			res.ExplorationComplete = true
			return false, nil
		}
		res.Next = &p
		res.Remaining = g.Frontier.Len()
		return true, nil
	})
	if err != nil {
		return MoveResult{}, err
	}
	return res, nil
}

func (c *Controller) QueryStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

func (c *Controller) status() Status {
	st := c.robot
	s := Status{
		CurrentPosition: st.Current,
		IsRunning:       st.IsRunning,
		WaitingForImage: st.WaitingForImage,
		ManualStop:      st.ManualStop,
		NeedsImage:      st.IsRunning && !c.grid.Visited.Contains(st.Current),
		Phase:           st.Phase(),
		VisitedCount:    c.grid.Visited.Len(),
		FrontierCount:   c.grid.Frontier.Len(),
	}
	if s.Phase == PhaseReady {
		if p, ok := c.grid.Frontier.Peek(); ok {
			s.SuggestedNext = &p
		} else {
			s.ExplorationComplete = true
		}
	}
	return s
}

// Robot returns a copy of the raw robot state.
func (c *Controller) Robot() RobotState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.robot
}

func (c *Controller) Map() MapView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return MapView{Visited: c.grid.Visited.All(), Frontier: c.grid.Frontier.Items()}
}

// Detections lists visited cells where a person was seen.
func (c *Controller) Detections() []VisitedEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Sightings(c.grid.Visited.All())
}

// Reset discards all exploration data and persists the empty state.
func (c *Controller) Reset(ctx context.Context) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.txn(ctx, func(st *RobotState, g *Grid) (bool, error) {
		*st = RobotState{GateEpoch: st.GateEpoch}
		*g = *NewGrid()
		return true, nil
	})
	if err != nil {
		return Status{}, err
	}
	log.Printf("explore: state reset")
	return c.status(), nil
}
