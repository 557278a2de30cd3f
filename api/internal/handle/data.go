package handle

import (
	"context"
	"net/http"
	"time"

	"robot-explorer/api/internal/explore"
)

func (h *Handle) Map(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctl.Map())
}

func (h *Handle) Robot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctl.Robot())
}

type DetectionsResponse struct {
	Detections []explore.VisitedEntry `json:"detections"`
	Count      int                    `json:"count"`
}

func (h *Handle) Detections(w http.ResponseWriter, r *http.Request) {
	d := h.ctl.Detections()
	writeJSON(w, http.StatusOK, DetectionsResponse{Detections: d, Count: len(d)})
}

func (h *Handle) Reset(w http.ResponseWriter, r *http.Request) {
	st, err := h.ctl.Reset(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h.opts.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.opts.Health.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store: not ok\n" + err.Error()))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
