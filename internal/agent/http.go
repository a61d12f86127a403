package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPExecutor calls an Agent Execution service over HTTP. Long-running
// calls are expected, so the client carries no timeout of its own; cancel
// through the context.
type HTTPExecutor struct {
	baseURL string
	client  *http.Client
}

// NewHTTPExecutor creates an executor against the given base URL.
func NewHTTPExecutor(baseURL string) *HTTPExecutor {
	return &HTTPExecutor{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// Execute implements Executor. The response payload is open-ended; known
// failure signals are extracted and the rest is preserved.
func (e *HTTPExecutor) Execute(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal execute request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build execute request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call agent service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read agent response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("agent service returned %d: %s", resp.StatusCode, truncate(payload, 200))
	}

	return ParseResult(payload), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ Executor = (*HTTPExecutor)(nil)
