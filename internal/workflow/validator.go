package workflow

import (
	"fmt"
	"strings"
	"time"

	"fieldservice/internal/domain/entity"
)

// TransitionRequest describes one requested status change. Built per call,
// never persisted.
type TransitionRequest struct {
	Job     *entity.Job
	Target  entity.JobStatus
	Actor   *entity.User
	Comment string
}

// Validator runs the decision pipeline for one transition request:
//
//	no-op → graph → role allow-list → forbidden edge → mandatory fields →
//	business rules → time tracking → accepted context
//
// It short-circuits on the first failure and performs no side effects.
type Validator struct {
	policy Policy
	rules  map[entity.JobStatus]Rule
	clock  func() time.Time
}

type ValidatorOption func(*Validator)

// WithClock overrides the time source; tests use this.
func WithClock(clock func() time.Time) ValidatorOption {
	return func(v *Validator) { v.clock = clock }
}

func NewValidator(policy Policy, rules map[entity.JobStatus]Rule, opts ...ValidatorOption) *Validator {
	v := &Validator{
		policy: policy,
		rules:  rules,
		clock:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Policy exposes the validator's configured policy (read-only use).
func (v *Validator) Policy() Policy { return v.policy }

// AllowedTargetsFor returns the statuses the actor can actually reach from
// current: graph targets filtered by role allow-list and forbidden edges.
func (v *Validator) AllowedTargetsFor(current entity.JobStatus, role entity.Role) []entity.JobStatus {
	var out []entity.JobStatus
	for _, target := range v.policy.AllowedTargets(current) {
		if !v.policy.RoleMaySet(role, target) {
			continue
		}
		if _, forbidden := v.policy.ForbiddenReason(role, target); forbidden {
			continue
		}
		out = append(out, target)
	}
	return out
}

// Validate decides one transition request. The returned Result either
// carries an accepted Context describing what to persist, or a Rejection.
// Identical inputs against an unchanged job yield identical results.
func (v *Validator) Validate(req TransitionRequest) Result {
	job, target, actor := req.Job, req.Target, req.Actor

	// Same-status requests are a deliberate idempotence guarantee, not a
	// graph edge: accepted, nothing to persist, no history entry.
	if job.Status == target {
		return Result{NoOp: true}
	}

	if !v.policy.CanTransition(job.Status, target) {
		return Result{Rejection: &Rejection{
			Kind:               KindInvalidTransition,
			Message:            fmt.Sprintf("cannot transition from %s to %s", job.Status, target),
			AllowedTransitions: v.policy.AllowedTargets(job.Status),
		}}
	}

	// Role policy runs strictly after the graph check so a nonsensical
	// transition never leaks an authorization message.
	if !v.policy.RoleMaySet(actor.Role, target) {
		return rejected(KindRoleNotAuthorized,
			fmt.Sprintf("role %s is not authorized to set status %s", actor.Role, target))
	}
	if reason, ok := v.policy.ForbiddenReason(actor.Role, target); ok {
		return rejected(KindForbiddenTransition, reason)
	}

	if v.policy.requiresComment(target) && strings.TrimSpace(req.Comment) == "" {
		return rejected(KindMissingComment,
			fmt.Sprintf("a comment is required when setting status %s", target))
	}
	if v.policy.requiresAssignment(target) && job.AssignedTo == nil {
		return rejected(KindMissingAssignment,
			fmt.Sprintf("job must be assigned before setting status %s", target))
	}

	if rule, ok := v.rules[target]; ok {
		if ok, message := rule(job, actor); !ok {
			return rejected(KindBusinessRuleViolation, message)
		}
	}

	eff := TrackTime(job.Status, target, job, v.clock())

	return Result{Context: &Context{
		NewStatus:       target,
		StartedAt:       eff.StartedAt,
		CompletedAt:     eff.CompletedAt,
		ActualDuration:  eff.ActualDuration,
		RequiresHistory: true,
	}}
}
