package handle

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"robot-explorer/api/internal/explore"
	"robot-explorer/api/internal/images"
	"robot-explorer/api/internal/vision"
)

// Alerter is told about every committed image with a person on it.
type Alerter interface {
	HumanDetected(p explore.Position, imageRef string, img []byte, mime string)
}

// Pinger reports whether the snapshot store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	DetectTimeout time.Duration
	MaxImageBytes int64
	Alert         Alerter
	Health        Pinger
}

type Handle struct {
	ctl  *explore.Controller
	det  vision.Detector
	imgs *images.Dir
	opts Options
}

func New(ctl *explore.Controller, det vision.Detector, imgs *images.Dir, opts Options) *Handle {
	if det == nil {
		det = vision.None{}
	}
	if opts.DetectTimeout <= 0 {
		opts.DetectTimeout = 30 * time.Second
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = 10 << 20
	}
	return &Handle{ctl: ctl, det: det, imgs: imgs, opts: opts}
}

// Routes registers every endpoint on mux.
func (h *Handle) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /robot/start", h.Start)
	mux.HandleFunc("POST /robot/stop", h.Stop)
	mux.HandleFunc("POST /robot/position", h.Position)
	mux.HandleFunc("POST /robot/image", h.Image)
	mux.HandleFunc("GET /robot/next_move", h.NextMove)
	mux.HandleFunc("GET /robot/status", h.Status)
	mux.HandleFunc("GET /data/map", h.Map)
	mux.HandleFunc("GET /data/robot", h.Robot)
	mux.HandleFunc("GET /data/detections", h.Detections)
	mux.HandleFunc("POST /reset", h.Reset)
	mux.HandleFunc("GET /healthz", h.Healthz)
	if h.imgs != nil {
		mux.Handle("GET /uploads/{file}", h.imgs.Handler())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps controller errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, explore.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, explore.ErrStaleSubmission), errors.Is(err, explore.ErrNotRunning):
		code = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	if code == http.StatusInternalServerError {
		log.Printf("handle: %v", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
