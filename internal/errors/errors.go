// Package errors provides structured error types for caseflow.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for caseflow.
const (
	// Run lifecycle errors
	CodeNoArtifacts Code = "RUN_NO_ARTIFACTS"
	CodeRunActive   Code = "RUN_ALREADY_ACTIVE"
	CodeRunNotFound Code = "RUN_NOT_FOUND"
	CodeRunAborted  Code = "RUN_ABORTED"
	CodeStepInvalid Code = "STEP_INVALID"
	CodeStepFault   Code = "STEP_EXECUTION_FAULT"
	CodeAdversarial Code = "ADVERSARIAL_INPUT_REJECTED"

	// Gate errors
	CodeGateNotPending Code = "GATE_NOT_PENDING"
	CodeApprovalDenied Code = "GATE_APPROVAL_DENIED"

	// Template errors
	CodeTemplateNotFound Code = "TEMPLATE_NOT_FOUND"
	CodeTemplateInvalid  Code = "TEMPLATE_INVALID"

	// Config errors
	CodeConfigInvalid Code = "CONFIG_INVALID"

	// Persistence errors
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
)

// Category groups error codes for HTTP status mapping.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNotFound
	CategoryBadRequest
	CategoryConflict
	CategoryForbidden
	CategoryInternal
	CategoryUnavailable
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodeNoArtifacts:      CategoryBadRequest,
	CodeRunActive:        CategoryConflict,
	CodeRunNotFound:      CategoryNotFound,
	CodeRunAborted:       CategoryConflict,
	CodeStepInvalid:      CategoryBadRequest,
	CodeStepFault:        CategoryInternal,
	CodeAdversarial:      CategoryConflict,
	CodeGateNotPending:   CategoryBadRequest,
	CodeApprovalDenied:   CategoryForbidden,
	CodeTemplateNotFound: CategoryNotFound,
	CodeTemplateInvalid:  CategoryBadRequest,
	CodeConfigInvalid:    CategoryBadRequest,
	CodeStoreUnavailable: CategoryUnavailable,
}

// HTTPStatus returns the HTTP status code for a category.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryNotFound:
		return 404
	case CategoryBadRequest:
		return 400
	case CategoryConflict:
		return 409
	case CategoryForbidden:
		return 403
	case CategoryUnavailable:
		return 503
	default:
		return 500
	}
}

// FlowError is the structured error type for caseflow.
type FlowError struct {
	Code  Code   `json:"code"`
	What  string `json:"what"`
	Why   string `json:"why,omitempty"`
	Fix   string `json:"fix,omitempty"`
	Cause error  `json:"-"`
}

// Error implements the error interface.
func (e *FlowError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *FlowError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *FlowError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// Category returns the error category for HTTP status mapping.
func (e *FlowError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *FlowError) HTTPStatus() int {
	return e.Category().HTTPStatus()
}

// MarshalJSON implements json.Marshaler.
func (e *FlowError) MarshalJSON() ([]byte, error) {
	type alias FlowError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a FlowError with the same code.
func (e *FlowError) Is(target error) bool {
	t, ok := target.(*FlowError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *FlowError) WithCause(err error) *FlowError {
	return &FlowError{
		Code:  e.Code,
		What:  e.What,
		Why:   e.Why,
		Fix:   e.Fix,
		Cause: err,
	}
}

// --- Error constructors ---

// ErrNoArtifacts returns an error for a run started without input artifacts.
func ErrNoArtifacts(caseID string) *FlowError {
	return &FlowError{
		Code: CodeNoArtifacts,
		What: fmt.Sprintf("case %s has no input artifacts", caseID),
		Why:  "A run cannot start until at least one artifact is attached to the case",
		Fix:  "Attach the case documents before starting the run",
	}
}

// ErrRunActive returns an error when a run is already in progress.
func ErrRunActive(runID string) *FlowError {
	return &FlowError{
		Code: CodeRunActive,
		What: fmt.Sprintf("run %s is already active", runID),
		Why:  "Only one run may be active per session",
		Fix:  "Wait for the current run to finish, or stop it with 'caseflow stop'",
	}
}

// ErrRunNotFound returns an error when no active run exists.
func ErrRunNotFound() *FlowError {
	return &FlowError{
		Code: CodeRunNotFound,
		What: "no active run",
		Why:  "The requested operation needs a run in progress",
		Fix:  "Start a run with 'caseflow run'",
	}
}

// ErrRunAborted returns an error when an operation hits the abort flag.
func ErrRunAborted(runID string) *FlowError {
	return &FlowError{
		Code: CodeRunAborted,
		What: fmt.Sprintf("run %s was aborted", runID),
		Why:  "Processing was halted by the operator",
		Fix:  "Start a new run to continue working on this case",
	}
}

// ErrStepInvalid returns an error for an out-of-range step number.
func ErrStepInvalid(step, total int) *FlowError {
	return &FlowError{
		Code: CodeStepInvalid,
		What: fmt.Sprintf("step %d is outside the template range 1..%d", step, total),
		Why:  "Steps execute strictly in template order",
	}
}

// ErrStepFault returns an error for an execution fault during a step.
func ErrStepFault(step int, role string, cause error) *FlowError {
	return &FlowError{
		Code:  CodeStepFault,
		What:  fmt.Sprintf("step %d (%s) failed during execution", step, role),
		Why:   "An unrecoverable fault occurred while the agent was executing",
		Fix:   "Review the run journal with 'caseflow export', then start a new run",
		Cause: cause,
	}
}

// ErrAdversarialInput returns an error for a confirmed critical adversarial signal.
func ErrAdversarialInput(step int, role string) *FlowError {
	return &FlowError{
		Code: CodeAdversarial,
		What: fmt.Sprintf("step %d (%s) rejected: critical adversarial input", step, role),
		Why:  "Confirmed critical adversarial input is never repaired or retried",
		Fix:  "Escalate the case for manual review before re-running",
	}
}

// ErrGateNotPending returns an error when no gate is awaiting a decision.
func ErrGateNotPending() *FlowError {
	return &FlowError{
		Code: CodeGateNotPending,
		What: "no gate is awaiting a decision",
		Why:  "Approval and rejection only apply while a step is held at a gate",
		Fix:  "Check 'caseflow status' for the current run state",
	}
}

// ErrApprovalDenied returns an error for an unauthorized gate decision.
func ErrApprovalDenied(operatorRole, stepRole string) *FlowError {
	return &FlowError{
		Code: CodeApprovalDenied,
		What: fmt.Sprintf("role %q may not approve output produced by %q", operatorRole, stepRole),
		Why:  "Gate approval authority is restricted by the producing unit's classification policy",
		Fix:  "Ask an authorized operator to review this gate",
	}
}

// ErrTemplateNotFound returns an error when a workforce template doesn't exist.
func ErrTemplateNotFound(name string) *FlowError {
	return &FlowError{
		Code: CodeTemplateNotFound,
		What: fmt.Sprintf("workforce template %q not found", name),
		Why:  "No builtin or user template with this name is registered",
		Fix:  "Run 'caseflow templates' to see available templates",
	}
}

// ErrTemplateInvalid returns an error for a malformed workforce template.
func ErrTemplateInvalid(name, reason string) *FlowError {
	return &FlowError{
		Code: CodeTemplateInvalid,
		What: fmt.Sprintf("workforce template %q is invalid", name),
		Why:  reason,
		Fix:  "Fix the template definition and retry",
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(field, reason string) *FlowError {
	return &FlowError{
		Code: CodeConfigInvalid,
		What: fmt.Sprintf("invalid configuration: %s", field),
		Why:  reason,
		Fix:  "Check .caseflow/config.yaml and fix the invalid field",
	}
}

// ErrStoreUnavailable returns an error when the persistence layer fails.
func ErrStoreUnavailable(cause error) *FlowError {
	return &FlowError{
		Code:  CodeStoreUnavailable,
		What:  "persistence store is unavailable",
		Why:   "The journal snapshot could not be read or written",
		Fix:   "Check the database path and permissions in .caseflow/config.yaml",
		Cause: cause,
	}
}

// AsFlowError attempts to convert an error to a FlowError.
// Returns nil if the error is not a FlowError.
func AsFlowError(err error) *FlowError {
	var fe *FlowError
	if As(err, &fe) {
		return fe
	}
	return nil
}

// As is a convenience wrapper for errors.As behavior on FlowError chains.
func As(err error, target any) bool {
	return asError(err, target)
}

func asError(err error, target any) bool {
	if err == nil {
		return false
	}
	if fe, ok := err.(*FlowError); ok {
		if t, ok := target.(**FlowError); ok {
			*t = fe
			return true
		}
	}
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		return asError(unwrapper.Unwrap(), target)
	}
	return false
}

// Wrap wraps a generic error into a FlowError with unknown code.
func Wrap(err error, what string) *FlowError {
	return &FlowError{
		Code:  Code("UNKNOWN"),
		What:  what,
		Cause: err,
	}
}
