package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"robot-explorer/api/internal/util"
)

// Prompt is the instruction sent to LLM-based detectors.
const Prompt = `You are the vision module of a search robot. Look at the PHOTO taken by the robot camera.
Decide whether at least one human (or a clearly visible part of a human body: face, hand, torso, legs) is present.
Return STRICT JSON and nothing else:
{
  "human_detected": boolean,
  "confidence": number,   // 0..1
  "reason": string        // a few words
}`

// MinConfidence is the lowest confidence at which a positive answer counts.
const MinConfidence = 0.5

// Verdict is the JSON answer LLM detectors are asked for.
type Verdict struct {
	HumanDetected bool     `json:"human_detected"`
	Confidence    *float64 `json:"confidence,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// ParseVerdict decodes a model answer, tolerating code fences.
// A positive answer below MinConfidence counts as negative.
func ParseVerdict(text string) (bool, error) {
	text = util.StripCodeFences(text)
	if text == "" {
		return false, fmt.Errorf("empty answer")
	}
	var v Verdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return false, fmt.Errorf("bad JSON: %w", err)
	}
	if v.Confidence != nil && *v.Confidence < MinConfidence {
		return false, nil
	}
	return v.HumanDetected, nil
}

// TruncateBody shortens an upstream error body for log and error messages.
func TruncateBody(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
