package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/caseflow-dev/caseflow/internal/errors"
)

// apiClient talks to a running caseflow server.
type apiClient struct {
	base string
	http *http.Client
}

func newClient() (*apiClient, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	base := cfg.ListenAddr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		// Gate decisions block until the run reaches its next pause point,
		// so the client timeout has to cover whole steps.
		http: &http.Client{Timeout: 10 * time.Minute},
	}, nil
}

func (c *apiClient) get(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return fmt.Errorf("caseflow server at %s: %w (is \"caseflow serve\" running?)", c.base, err)
	}
	return c.decode(resp, out)
}

func (c *apiClient) post(path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("caseflow server at %s: %w (is \"caseflow serve\" running?)", c.base, err)
	}
	return c.decode(resp, out)
}

func (c *apiClient) decode(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		var body struct {
			Error *errors.FlowError `json:"error"`
		}
		if json.Unmarshal(payload, &body) == nil && body.Error != nil {
			return body.Error
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(payload, out)
}

// getRaw fetches a non-JSON response body.
func (c *apiClient) getRaw(path string) ([]byte, error) {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return nil, fmt.Errorf("caseflow server at %s: %w (is \"caseflow serve\" running?)", c.base, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return payload, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// bold wraps s in ANSI bold when stdout is a terminal.
func bold(s string) string {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return "\033[1m" + s + "\033[0m"
	}
	return s
}
