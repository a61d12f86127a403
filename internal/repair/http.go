package repair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPRepairer calls an input-repair service over HTTP.
type HTTPRepairer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRepairer creates a repairer against the given base URL.
func NewHTTPRepairer(baseURL string) *HTTPRepairer {
	return &HTTPRepairer{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// Repair implements Repairer.
func (r *HTTPRepairer) Repair(ctx context.Context, req Request) (*Outcome, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal repair request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/repair", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build repair request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call repair service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read repair response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("repair service returned %d", resp.StatusCode)
	}

	var outcome Outcome
	if err := json.Unmarshal(payload, &outcome); err != nil {
		return nil, fmt.Errorf("decode repair outcome: %w", err)
	}
	return &outcome, nil
}

var _ Repairer = (*HTTPRepairer)(nil)
