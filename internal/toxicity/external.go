package toxicity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ExternalClassifier calls an optional remote semantic classifier. It is a
// best-effort stage: any transport or parse failure is reported as an error
// and the caller treats the text as not toxic.
type ExternalClassifier struct {
	url    string
	apiKey string
	client *http.Client
}

// NewExternalClassifier returns nil when no URL is configured, which
// disables the external stage entirely.
func NewExternalClassifier(url, apiKey string, timeout time.Duration) *ExternalClassifier {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &ExternalClassifier{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

type externalRequest struct {
	Text string `json:"text"`
}

type externalResponse struct {
	Toxic    bool    `json:"toxic"`
	Score    float64 `json:"score"`
	Category string  `json:"category"`
}

// Classify sends the text to the remote classifier. The http.Client timeout
// is the hard ceiling on how long a submission can wait on this stage.
func (e *ExternalClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	body, err := json.Marshal(externalRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode classifier request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var out externalResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode classifier response: %w", err)
	}

	if !out.Toxic {
		return &Result{}, nil
	}

	category := out.Category
	if category == "" {
		category = CategoryProfanity
	}

	return &Result{
		IsToxic:     true,
		Score:       out.Score,
		Category:    category,
		Explanation: "flagged by semantic classifier",
	}, nil
}
