// Package agent defines the boundary to the external Agent Execution service.
//
// The service turns a step's input plus prior outputs into a structured
// result. caseflow treats it as a black box: the payload is open-ended, but
// the known failure signals are extracted into typed fields so the
// orchestrator's failure handling is exhaustive while unknown fields are
// tolerated.
package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Artifact is one input document attached to a case.
type Artifact struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Content   string `json:"content"`
}

// SHA256 returns the hex content hash of the artifact.
func (a Artifact) SHA256() string {
	sum := sha256.Sum256([]byte(a.Content))
	return hex.EncodeToString(sum[:])
}

// Input is the assembled input for one step execution.
type Input struct {
	CaseID string `json:"case_id"`
	// Artifacts carries the case's raw artifacts. Populated for step 1 only.
	Artifacts []Artifact `json:"artifacts,omitempty"`
	// PriorOutputs maps completed step numbers to their free-form outputs.
	PriorOutputs map[int]string `json:"prior_outputs,omitempty"`
	// Directives is the rendered operator-constraint block for the step's role.
	Directives string `json:"directives,omitempty"`
}

// Request identifies one step execution.
type Request struct {
	Role     string `json:"role"`
	Step     int    `json:"step"`
	Template string `json:"template"`
	Input    Input  `json:"input"`
}

// Executor is the external Agent Execution collaborator.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

// Usage counts the resource units consumed by one execution.
type Usage struct {
	InputUnits  int `json:"input_units"`
	OutputUnits int `json:"output_units"`
}

// Total returns the summed unit count.
func (u Usage) Total() int {
	return u.InputUnits + u.OutputUnits
}
