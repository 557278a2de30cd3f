package handle

import (
	"encoding/json"
	"fmt"
	"net/http"

	"robot-explorer/api/internal/explore"
)

func (h *Handle) Start(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctl.Start(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handle) Stop(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctl.Stop(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// PositionRequest is the body of POST /robot/position. Both coordinates are required.
type PositionRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func (p PositionRequest) position() (explore.Position, error) {
	if p.X == nil || p.Y == nil {
		return explore.Position{}, fmt.Errorf("%w: x and y are required", explore.ErrInvalidInput)
	}
	return explore.Position{X: *p.X, Y: *p.Y}, nil
}

func (h *Handle) Position(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: bad json: %v", explore.ErrInvalidInput, err))
		return
	}
	p, err := req.position()
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.ctl.ReportPosition(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handle) NextMove(w http.ResponseWriter, r *http.Request) {
	res, err := h.ctl.RequestNextMove(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handle) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctl.QueryStatus())
}
