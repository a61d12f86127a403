package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPExecutorExecute(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/execute", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"ok","output":"extracted","usage":{"input_units":12,"output_units":3}}`))
	}))
	defer srv.Close()

	exec := NewHTTPExecutor(srv.URL)
	res, err := exec.Execute(context.Background(), Request{
		Role: "extractor",
		Step: 1,
		Input: Input{
			CaseID:    "CASE-1",
			Artifacts: []Artifact{{Name: "claim.pdf", Content: "body"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "extractor", got.Role)
	assert.Equal(t, "extracted", res.Output)
	assert.Equal(t, 15, res.Usage.Total())
	assert.False(t, res.Failed())
}

func TestHTTPExecutorFailureSignals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"blocked","adversarial":{"severity":"critical","anomaly_type":"prompt_injection"}}`))
	}))
	defer srv.Close()

	res, err := NewHTTPExecutor(srv.URL).Execute(context.Background(), Request{Role: "sanitizer", Step: 2})
	require.NoError(t, err)
	assert.True(t, res.AdversarialCritical())
}

func TestHTTPExecutorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPExecutor(srv.URL).Execute(context.Background(), Request{Role: "extractor", Step: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
