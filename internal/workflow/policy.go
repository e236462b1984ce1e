package workflow

import "fieldservice/internal/domain/entity"

// Policy is the immutable configuration the validator is built from: the
// transition graph, per-role authorization and the mandatory-field tables.
// It is passed into NewValidator rather than living as package globals so
// tests and tenants can carry their own variant.
type Policy struct {
	// Transitions lists every legal (from → to) edge.
	Transitions map[entity.JobStatus][]entity.JobStatus
	// RoleAllow is the set of statuses a role may ever set on a job.
	RoleAllow map[entity.Role][]entity.JobStatus
	// ForbiddenEdges holds graph-legal targets a role is still refused, with
	// the human-readable reason.
	ForbiddenEdges map[entity.Role]map[entity.JobStatus]string
	// CommentRequired lists targets that demand a non-empty comment.
	CommentRequired []entity.JobStatus
	// AssignmentRequired lists targets that demand an assigned technician.
	AssignmentRequired []entity.JobStatus
}

// DefaultPolicy returns the built-in field-service workflow:
//
//	pending     ──► in_progress, cancelled, on_hold
//	in_progress ──► completed, on_hold, cancelled, pending
//	on_hold     ──► pending, in_progress, cancelled
//	completed   ──► in_progress (reopen)
//	cancelled   ──► pending (reactivate)
func DefaultPolicy() Policy {
	return Policy{
		Transitions: map[entity.JobStatus][]entity.JobStatus{
			entity.StatusPending:    {entity.StatusInProgress, entity.StatusCancelled, entity.StatusOnHold},
			entity.StatusInProgress: {entity.StatusCompleted, entity.StatusOnHold, entity.StatusCancelled, entity.StatusPending},
			entity.StatusOnHold:     {entity.StatusPending, entity.StatusInProgress, entity.StatusCancelled},
			entity.StatusCompleted:  {entity.StatusInProgress},
			entity.StatusCancelled:  {entity.StatusPending},
		},
		RoleAllow: map[entity.Role][]entity.JobStatus{
			entity.RoleAdmin:      entity.AllStatuses,
			entity.RoleManager:    entity.AllStatuses,
			entity.RoleDispatcher: entity.AllStatuses,
			entity.RoleTechnician: {entity.StatusInProgress, entity.StatusCompleted, entity.StatusOnHold},
		},
		ForbiddenEdges: map[entity.Role]map[entity.JobStatus]string{
			entity.RoleTechnician: {
				entity.StatusCancelled: "Only managers and administrators can cancel jobs",
			},
		},
		CommentRequired:    []entity.JobStatus{entity.StatusCompleted, entity.StatusCancelled, entity.StatusOnHold},
		AssignmentRequired: []entity.JobStatus{entity.StatusInProgress, entity.StatusCompleted},
	}
}

// AllowedTargets returns the statuses reachable from current per the graph.
func (p Policy) AllowedTargets(current entity.JobStatus) []entity.JobStatus {
	targets, ok := p.Transitions[current]
	if !ok {
		return nil
	}
	out := make([]entity.JobStatus, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether the graph has a (from → to) edge.
func (p Policy) CanTransition(from, to entity.JobStatus) bool {
	return containsStatus(p.Transitions[from], to)
}

// RoleMaySet reports whether the role's allow-list includes the target.
func (p Policy) RoleMaySet(role entity.Role, target entity.JobStatus) bool {
	return containsStatus(p.RoleAllow[role], target)
}

// ForbiddenReason returns the role-specific rejection message for a target,
// if one is configured.
func (p Policy) ForbiddenReason(role entity.Role, target entity.JobStatus) (string, bool) {
	edges, ok := p.ForbiddenEdges[role]
	if !ok {
		return "", false
	}
	reason, ok := edges[target]
	return reason, ok
}

func (p Policy) requiresComment(target entity.JobStatus) bool {
	return containsStatus(p.CommentRequired, target)
}

func (p Policy) requiresAssignment(target entity.JobStatus) bool {
	return containsStatus(p.AssignmentRequired, target)
}

func containsStatus(list []entity.JobStatus, s entity.JobStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
