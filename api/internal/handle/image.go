package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"robot-explorer/api/internal/explore"
	"robot-explorer/api/internal/util"
	"robot-explorer/api/internal/vision"
)

// ImageRequest is the JSON form of POST /robot/image.
type ImageRequest struct {
	ImageB64 string `json:"image_b64"`
	Mime     string `json:"mime,omitempty"`
}

type ImageResponse struct {
	explore.ImageResult
	ImagePath string `json:"image_path"`
}

// Image accepts a frame as multipart field "image", JSON image_b64, or a raw
// body. The frame is stored and classified before the result is committed.
func (h *Handle) Image(w http.ResponseWriter, r *http.Request) {
	img, mimeType, err := h.readImage(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	ticket, err := h.ctl.PrepareImage()
	if err != nil {
		log.Printf("handle: image rejected: %v", err)
		writeError(w, err)
		return
	}

	// without an upload directory frames are classified but not kept
	var ref string
	if h.imgs != nil {
		if ref, err = h.imgs.Save(ticket.Position, img, mimeType); err != nil {
			writeError(w, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.detectDeadline(r))
	human, _ := vision.Classify(ctx, h.det, img, mimeType)
	cancel()

	res, err := h.ctl.SubmitImage(r.Context(), ticket, human, ref)
	if err != nil {
		if h.imgs != nil {
			if rmErr := h.imgs.Remove(ref); rmErr != nil {
				log.Printf("handle: remove orphaned %s: %v", ref, rmErr)
			}
		}
		writeError(w, err)
		return
	}
	if human && h.opts.Alert != nil {
		h.opts.Alert.HumanDetected(res.Position, ref, img, mimeType)
	}
	writeJSON(w, http.StatusOK, ImageResponse{ImageResult: res, ImagePath: ref})
}

func (h *Handle) readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxImageBytes)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		data     []byte
		explicit string
		hint     string
	)
	switch {
	case strings.HasPrefix(ct, "multipart/"):
		f, fh, err := r.FormFile("image")
		if err != nil {
			return nil, "", fmt.Errorf("%w: multipart field \"image\": %v", explore.ErrInvalidInput, err)
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			return nil, "", readErr(err)
		}
		explicit = fh.Header.Get("Content-Type")
	case ct == "application/json":
		var req ImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, "", fmt.Errorf("%w: bad json: %v", explore.ErrInvalidInput, readErr(err))
		}
		b, m, err := util.DecodeBase64MaybeDataURL(req.ImageB64)
		if err != nil {
			return nil, "", fmt.Errorf("%w: bad image_b64", explore.ErrInvalidInput)
		}
		data, explicit, hint = b, req.Mime, m
	default:
		var err error
		if data, err = io.ReadAll(r.Body); err != nil {
			return nil, "", readErr(err)
		}
		explicit = ct
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image", explore.ErrInvalidInput)
	}
	return data, util.PickMIME(explicit, hint, data), nil
}

func readErr(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return fmt.Errorf("%w: image larger than %d bytes", explore.ErrInvalidInput, tooBig.Limit)
	}
	return fmt.Errorf("%w: read image: %v", explore.ErrInvalidInput, err)
}

// detectDeadline honours X-Request-Timeout or ?timeoutSec= in seconds.
func (h *Handle) detectDeadline(r *http.Request) time.Duration {
	deadline := h.opts.DetectTimeout
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	return deadline
}
