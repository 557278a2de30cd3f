package explore

import "time"

// Phase is the coordination state derived from the robot flags.
type Phase string

const (
	PhaseStopped       Phase = "stopped"
	PhaseAwaitingImage Phase = "awaiting_image"
	PhaseReady         Phase = "ready"
)

// RobotState is the robot half of the exploration snapshot.
// GateEpoch increments every time WaitingForImage goes from false to true.
type RobotState struct {
	Current         Position  `json:"current_position" cbor:"current_position"`
	IsRunning       bool      `json:"is_running" cbor:"is_running"`
	WaitingForImage bool      `json:"waiting_for_image" cbor:"waiting_for_image"`
	ManualStop      bool      `json:"manual_stop" cbor:"manual_stop"`
	GateEpoch       uint64    `json:"gate_epoch" cbor:"gate_epoch"`
	LastUpdate      time.Time `json:"last_update" cbor:"last_update"`
}

func (s RobotState) Phase() Phase {
	switch {
	case !s.IsRunning:
		return PhaseStopped
	case s.WaitingForImage:
		return PhaseAwaitingImage
	default:
		return PhaseReady
	}
}

func (s *RobotState) armGate() {
	if !s.WaitingForImage {
		s.WaitingForImage = true
		s.GateEpoch++
	}
}
