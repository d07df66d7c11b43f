// Package errors defines the domain error taxonomy shared by every control
// plane component. Each error type carries a stable Code() used by the
// Workflow API Surface to project internal failures onto the user-visible
// HTTP taxonomy described in the error handling design.
package errors

import "fmt"

// Code identifies a user-visible error category.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeTypeMismatch       Code = "TYPE_MISMATCH"
	CodeConfigKeysMismatch Code = "CONFIG_KEYS_MISMATCH"
	CodeCyclic             Code = "CYCLIC"
	CodeDisconnected       Code = "DISCONNECTED"
	CodeManifestInvalid    Code = "MANIFEST_INVALID"
	CodeManifestNotFound   Code = "MANIFEST_NOT_FOUND"
	CodeRepoUnreachable    Code = "REPO_UNREACHABLE"
	CodeTemplateInvalid    Code = "TEMPLATE_INVALID"
	CodeTemplateCyclic     Code = "TEMPLATE_CYCLIC"
	CodeMissingConfig      Code = "MISSING_CONFIG"
	CodeEmptyProject       Code = "EMPTY_PROJECT"
	CodeUpstreamFailure    Code = "UPSTREAM_FAILURE"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeConflict           Code = "CONFLICT"
	CodeUnprocessable      Code = "UNPROCESSABLE"
	CodeInternal           Code = "INTERNAL"
)

// CodedError is implemented by every error type in this package so the API
// boundary can recover a stable projection code with a single type switch.
type CodedError interface {
	error
	Code() Code
}

// NotFoundError indicates an entity lookup miss (project, block, port, edge).
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Code() Code { return CodeNotFound }

// TypeMismatchError indicates an edge was requested between incompatible ports.
type TypeMismatchError struct {
	SourceType string
	TargetType string
}

func NewTypeMismatchError(sourceType, targetType string) error {
	return &TypeMismatchError{SourceType: sourceType, TargetType: targetType}
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot connect %s output to %s input", e.SourceType, e.TargetType)
}

func (e *TypeMismatchError) Code() Code { return CodeTypeMismatch }

// ConfigKeysMismatchError indicates a config update introduced keys that did
// not exist in the prior configuration.
type ConfigKeysMismatchError struct {
	Owner   string
	NewKeys []string
}

func NewConfigKeysMismatchError(owner string, newKeys []string) error {
	return &ConfigKeysMismatchError{Owner: owner, NewKeys: newKeys}
}

func (e *ConfigKeysMismatchError) Error() string {
	return fmt.Sprintf("config update for %s introduces unknown keys: %v", e.Owner, e.NewKeys)
}

func (e *ConfigKeysMismatchError) Code() Code { return CodeConfigKeysMismatch }

// CyclicError indicates a directed graph (project or template) is not acyclic.
type CyclicError struct {
	Scope string // "project" or "template"
	Cycle []string
}

func NewCyclicError(scope string, cycle []string) error {
	return &CyclicError{Scope: scope, Cycle: cycle}
}

func (e *CyclicError) Error() string {
	return fmt.Sprintf("%s graph contains a cycle: %v", e.Scope, e.Cycle)
}

func (e *CyclicError) Code() Code {
	if e.Scope == "template" {
		return CodeTemplateCyclic
	}
	return CodeCyclic
}

// DisconnectedError indicates the project graph is not weakly connected.
type DisconnectedError struct {
	Components int
}

func NewDisconnectedError(components int) error {
	return &DisconnectedError{Components: components}
}

func (e *DisconnectedError) Error() string {
	return fmt.Sprintf("project graph has %d disconnected components", e.Components)
}

func (e *DisconnectedError) Code() Code { return CodeDisconnected }

// ManifestError reports a manifest fetch/parse failure.
type ManifestError struct {
	Kind string // "invalid", "not_found", "repo_unreachable"
	URL  string
	Err  error
}

func NewManifestInvalidError(url string, err error) error {
	return &ManifestError{Kind: "invalid", URL: url, Err: err}
}

func NewManifestNotFoundError(url string) error {
	return &ManifestError{Kind: "not_found", URL: url}
}

func NewRepoUnreachableError(url string, err error) error {
	return &ManifestError{Kind: "repo_unreachable", URL: url, Err: err}
}

func (e *ManifestError) Error() string {
	switch e.Kind {
	case "not_found":
		return fmt.Sprintf("manifest not found in %s", e.URL)
	case "repo_unreachable":
		return fmt.Sprintf("repository %s unreachable: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("invalid manifest from %s: %v", e.URL, e.Err)
	}
}

func (e *ManifestError) Unwrap() error { return e.Err }

func (e *ManifestError) Code() Code {
	switch e.Kind {
	case "not_found":
		return CodeManifestNotFound
	case "repo_unreachable":
		return CodeRepoUnreachable
	default:
		return CodeManifestInvalid
	}
}

// TemplateError reports a workflow-template validation failure.
type TemplateError struct {
	Message string
	Cyclic  bool
	Err     error
}

func NewTemplateInvalidError(message string, err error) error {
	return &TemplateError{Message: message, Err: err}
}

func NewTemplateCyclicError(cycle []string) error {
	return &TemplateError{Message: fmt.Sprintf("cyclic dependency: %v", cycle), Cyclic: true}
}

func (e *TemplateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template invalid: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("template invalid: %s", e.Message)
}

func (e *TemplateError) Unwrap() error { return e.Err }

func (e *TemplateError) Code() Code {
	if e.Cyclic {
		return CodeTemplateCyclic
	}
	return CodeTemplateInvalid
}

// MissingConfig describes the unset keys on a single block.
type MissingConfig struct {
	BlockID     string
	MissingKeys []string
}

// MissingConfigError is returned by run-launch validation; it carries the
// structured per-block payload required by "User-visible failure behavior".
type MissingConfigError struct {
	Blocks []MissingConfig
}

func NewMissingConfigError(blocks []MissingConfig) error {
	return &MissingConfigError{Blocks: blocks}
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing configuration on %d block(s)", len(e.Blocks))
}

func (e *MissingConfigError) Code() Code { return CodeMissingConfig }

// EmptyProjectError is a distinct boundary case: a project with no blocks
// cannot be launched and is not reported as MISSING_CONFIG.
type EmptyProjectError struct {
	ProjectID string
}

func NewEmptyProjectError(projectID string) error {
	return &EmptyProjectError{ProjectID: projectID}
}

func (e *EmptyProjectError) Error() string {
	return fmt.Sprintf("project %s has no blocks", e.ProjectID)
}

func (e *EmptyProjectError) Code() Code { return CodeEmptyProject }

// UpstreamFailureError wraps an orchestrator or object-store failure. It is
// never retried automatically; the caller may retry.
type UpstreamFailureError struct {
	System     string // "orchestrator" or "object_store"
	StatusCode int
	Body       string
	Err        error
}

func NewUpstreamFailureError(system string, statusCode int, body string, err error) error {
	return &UpstreamFailureError{System: system, StatusCode: statusCode, Body: body, Err: err}
}

func (e *UpstreamFailureError) Error() string {
	return fmt.Sprintf("%s returned an error (status=%d): %v", e.System, e.StatusCode, e.Err)
}

func (e *UpstreamFailureError) Unwrap() error { return e.Err }

func (e *UpstreamFailureError) Code() Code { return CodeUpstreamFailure }

// AuthError distinguishes unauthenticated from unauthorized access.
type AuthError struct {
	Forbidden bool
	Message   string
}

func NewUnauthorizedError(message string) error {
	return &AuthError{Forbidden: false, Message: message}
}

func NewForbiddenError(message string) error {
	return &AuthError{Forbidden: true, Message: message}
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Code() Code {
	if e.Forbidden {
		return CodeForbidden
	}
	return CodeUnauthorized
}

// ConflictError maps a relational integrity violation (unique/foreign key).
type ConflictError struct {
	Message string
	Err     error
}

func NewConflictError(message string, err error) error {
	return &ConflictError{Message: message, Err: err}
}

func (e *ConflictError) Error() string { return fmt.Sprintf("conflict: %s", e.Message) }

func (e *ConflictError) Unwrap() error { return e.Err }

func (e *ConflictError) Code() Code { return CodeConflict }

// UnprocessableError maps a not-null integrity violation or otherwise
// semantically invalid but well-formed request.
type UnprocessableError struct {
	Message string
	Err     error
}

func NewUnprocessableError(message string, err error) error {
	return &UnprocessableError{Message: message, Err: err}
}

func (e *UnprocessableError) Error() string { return fmt.Sprintf("unprocessable: %s", e.Message) }

func (e *UnprocessableError) Unwrap() error { return e.Err }

func (e *UnprocessableError) Code() Code { return CodeUnprocessable }

// Coerce extracts a Code from any error, defaulting to CodeInternal for
// unrecognized infrastructure failures so the API boundary always has a
// projection.
func Coerce(err error) Code {
	if err == nil {
		return ""
	}
	if coded, ok := asCoded(err); ok {
		return coded.Code()
	}
	return CodeInternal
}

func asCoded(err error) (CodedError, bool) {
	for err != nil {
		if c, ok := err.(CodedError); ok {
			return c, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}
