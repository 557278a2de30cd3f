package yandex

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

const defaultVisionURL = "https://vision.api.cloud.yandex.net/vision/v1/batchAnalyze"

// Detector uses Yandex Vision face detection: any face counts as a person.
type Detector struct {
	creds    *visionCredentials
	folderID string
	url      string
	httpc    *http.Client
}

func New(oauthToken, folderID string) *Detector {
	return &Detector{
		creds:    newVisionCredentials(oauthToken),
		folderID: folderID,
		url:      defaultVisionURL,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (d *Detector) Name() string { return "yandex" }

type analyzeSpec struct {
	Content  string    `json:"content"`
	Features []feature `json:"features"`
}

type feature struct {
	Type string `json:"type"`
}

type analyzeRequest struct {
	FolderID     string        `json:"folderId"`
	AnalyzeSpecs []analyzeSpec `json:"analyze_specs"`
}

type analyzeResponse struct {
	Results []struct {
		Results []struct {
			FaceDetection *struct {
				Faces []json.RawMessage `json:"faces"`
			} `json:"faceDetection,omitempty"`
			Error *struct {
				Message string `json:"message"`
			} `json:"error,omitempty"`
		} `json:"results"`
	} `json:"results"`
}

func (d *Detector) Detect(ctx context.Context, img []byte, _ string) (bool, error) {
	payload, _ := json.Marshal(analyzeRequest{
		FolderID: d.folderID,
		AnalyzeSpecs: []analyzeSpec{{
			Content:  base64.StdEncoding.EncodeToString(img),
			Features: []feature{{Type: "FACE_DETECTION"}},
		}},
	})

	resp, err := d.post(ctx, payload)
	if err != nil {
		return false, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// one retry with a fresh token
		resp.Body.Close()
		d.creds.reject()
		if resp, err = d.post(ctx, payload); err != nil {
			return false, err
		}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("yandex vision %d: %s", resp.StatusCode, vision.TruncateBody(raw, 512))
	}

	var out analyzeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("yandex vision: decode: %w", err)
	}
	for _, r := range out.Results {
		for _, fr := range r.Results {
			if fr.Error != nil && strings.TrimSpace(fr.Error.Message) != "" {
				return false, fmt.Errorf("yandex vision: %s", fr.Error.Message)
			}
			if fr.FaceDetection != nil && len(fr.FaceDetection.Faces) > 0 {
				return true, nil
			}
		}
	}
	return false, nil
}

func (d *Detector) post(ctx context.Context, payload []byte) (*http.Response, error) {
	iamToken, err := d.creds.bearerToken(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iamToken)
	req.Header.Set("x-folder-id", d.folderID)
	return d.httpc.Do(req)
}
