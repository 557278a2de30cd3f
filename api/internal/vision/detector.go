package vision

import (
	"context"
	"errors"
	"fmt"
	"log"

	"robot-explorer/api/internal/explore"
)

// Detector answers one question about an image: is there a person in it.
type Detector interface {
	Name() string
	Detect(ctx context.Context, img []byte, mime string) (bool, error)
}

// Detectors holds every configured backend; one is picked at startup.
type Detectors struct {
	Gemini Detector
	OpenAI Detector
	Yandex Detector
}

func (d *Detectors) GetDetector(name string) (Detector, error) {
	var det Detector
	switch name {
	case "gemini":
		det = d.Gemini
	case "gpt", "openai":
		det = d.OpenAI
	case "yandex":
		det = d.Yandex
	case "none", "":
		return None{}, nil
	default:
		return nil, errors.New("unknown detector; use gemini | gpt | yandex | none")
	}
	if det == nil {
		return nil, fmt.Errorf("detector %q is not configured", name)
	}
	return det, nil
}

// None never sees anyone. Used when no vision backend is configured.
type None struct{}

func (None) Name() string { return "none" }

func (None) Detect(context.Context, []byte, string) (bool, error) { return false, nil }

// Classify runs d and folds any failure into a negative result. The returned
// error wraps explore.ErrDetectionUnavailable and is for logging only.
func Classify(ctx context.Context, d Detector, img []byte, mime string) (bool, error) {
	human, err := d.Detect(ctx, img, mime)
	if err != nil {
		log.Printf("vision: %s detect failed, assuming no human: %v", d.Name(), err)
		return false, fmt.Errorf("%w: %s: %v", explore.ErrDetectionUnavailable, d.Name(), err)
	}
	return human, nil
}
