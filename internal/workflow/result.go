// Package workflow implements the job status workflow engine: the transition
// graph, role authorization policy, business rules, time tracking and the
// validation pipeline that decides whether a requested status change is
// legal. The engine is pure — it performs no I/O and mutates nothing; the
// caller applies the computed side effects.
package workflow

import (
	"time"

	"fieldservice/internal/domain/entity"
)

// RejectionKind classifies why a transition request was refused. These are
// business rejections, not errors; transport maps them to HTTP codes.
type RejectionKind string

const (
	KindNotFound              RejectionKind = "not_found"
	KindInvalidTransition     RejectionKind = "invalid_transition"
	KindRoleNotAuthorized     RejectionKind = "role_not_authorized"
	KindForbiddenTransition   RejectionKind = "forbidden_transition"
	KindMissingComment        RejectionKind = "missing_comment"
	KindMissingAssignment     RejectionKind = "missing_assignment"
	KindBusinessRuleViolation RejectionKind = "business_rule_violation"
	KindStatusConflict        RejectionKind = "status_conflict"
	KindInternal              RejectionKind = "internal_error"
)

type Rejection struct {
	Kind    RejectionKind `json:"kind"`
	Message string        `json:"message"`
	// AllowedTransitions is populated on invalid_transition rejections so the
	// caller can render valid next states.
	AllowedTransitions []entity.JobStatus `json:"allowed_transitions,omitempty"`
}

// Context is the accepted outcome of a validation: what the caller must
// persist. Nil timestamp/duration fields mean "leave unchanged".
type Context struct {
	NewStatus       entity.JobStatus
	StartedAt       *time.Time
	CompletedAt     *time.Time
	ActualDuration  *int
	RequiresHistory bool
}

// Result is the discriminated outcome of one validation. Exactly one of
// Context and Rejection is set, except for no-op requests where both are nil.
type Result struct {
	NoOp      bool
	Context   *Context
	Rejection *Rejection
}

func (r Result) Accepted() bool { return r.Rejection == nil }

func rejected(kind RejectionKind, message string) Result {
	return Result{Rejection: &Rejection{Kind: kind, Message: message}}
}
