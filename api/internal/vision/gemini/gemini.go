package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"robot-explorer/api/internal/vision"
)

type Detector struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Detector {
	return &Detector{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (d *Detector) Name() string { return "gemini" }

func (d *Detector) Detect(ctx context.Context, img []byte, mime string) (bool, error) {
	if d.APIKey == "" {
		return false, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(d.APIKey))
	if err != nil {
		return false, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(d.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(vision.Prompt)},
	}

	parts := []genai.Part{
		genai.Text("Answer strictly with the JSON object. No comments."),
		genai.Blob{MIMEType: mime, Data: img},
	}

	// retry transient 5xx/network failures
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return false, fmt.Errorf("gemini detect: empty response")
		}
		human, err := vision.ParseVerdict(txt)
		if err != nil {
			return false, fmt.Errorf("gemini detect: %w", err)
		}
		return human, nil
	}
	return false, lastErr
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
