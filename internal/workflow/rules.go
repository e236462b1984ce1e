package workflow

import "fieldservice/internal/domain/entity"

// Rule is a business predicate consulted after graph, role and field checks
// pass. The actor arrives already resolved; rules never perform I/O.
type Rule func(job *entity.Job, actor *entity.User) (ok bool, message string)

// DefaultRules returns the business rules keyed by target status. Targets
// without a rule pass unconditionally.
func DefaultRules() map[entity.JobStatus]Rule {
	return map[entity.JobStatus]Rule{
		entity.StatusInProgress: ruleStartJob,
		entity.StatusCompleted:  ruleCompleteJob,
		entity.StatusCancelled:  ruleCancelJob,
	}
}

func ruleStartJob(job *entity.Job, actor *entity.User) (bool, string) {
	if job.AssignedTo == nil {
		return false, "Job must be assigned before it can be started"
	}
	// Technicians may only start jobs assigned to themselves.
	if actor.Role == entity.RoleTechnician && !job.IsAssignedTo(actor.ID) {
		return false, "Technicians can only start jobs assigned to them"
	}
	return true, ""
}

func ruleCompleteJob(job *entity.Job, _ *entity.User) (bool, string) {
	if job.AssignedTo == nil {
		return false, "Job must be assigned before it can be completed"
	}
	// Stricter than the raw graph: a job that never left pending has not
	// been worked on and cannot jump straight to completed.
	if job.Status == entity.StatusPending {
		return false, "Job must be started before it can be completed"
	}
	return true, ""
}

func ruleCancelJob(job *entity.Job, _ *entity.User) (bool, string) {
	if job.Status == entity.StatusCompleted {
		return false, "Cannot cancel a completed job"
	}
	return true, ""
}
