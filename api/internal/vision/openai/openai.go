package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"robot-explorer/api/internal/vision"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Detector struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
}

func New(key, model string) *Detector {
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	return &Detector{
		APIKey:  key,
		Model:   model,
		BaseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

// WithHTTPClient replaces the default client. Tests point it at httptest.
func (d *Detector) WithHTTPClient(c *http.Client) *Detector {
	d.httpc = c
	return d
}

func (d *Detector) Name() string { return "gpt" }

func (d *Detector) Detect(ctx context.Context, img []byte, mime string) (bool, error) {
	if d.APIKey == "" {
		return false, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if !isImageMIME(mime) {
		mime = "image/jpeg"
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img)

	body := map[string]any{
		"model": d.Model,
		"messages": []any{
			map[string]any{"role": "system", "content": vision.Prompt},
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": "Answer strictly with the JSON object. No comments."},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": dataURL, "detail": "low"}},
				},
			},
		},
		"temperature":     0,
		"response_format": map[string]any{"type": "json_object"},
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(d.BaseURL, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.APIKey)

	resp, err := d.httpc.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("openai detect %d: %s", resp.StatusCode, vision.TruncateBody(raw, 512))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("openai detect: decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return false, fmt.Errorf("openai detect: no choices; body=%s", vision.TruncateBody(raw, 512))
	}
	human, err := vision.ParseVerdict(out.Choices[0].Message.Content)
	if err != nil {
		return false, fmt.Errorf("openai detect: %w", err)
	}
	return human, nil
}

func isImageMIME(m string) bool {
	switch strings.ToLower(m) {
	case "image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}
