package workflow

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"fieldservice/internal/domain/entity"
)

// HCL schema for workflow policy files, e.g.:
//
//	transition "pending" {
//	  to = ["in_progress", "cancelled", "on_hold"]
//	}
//
//	role "technician" {
//	  allow = ["in_progress", "completed", "on_hold"]
//	  deny "cancelled" {
//	    reason = "Only managers and administrators can cancel jobs"
//	  }
//	}
//
//	requirements {
//	  comment    = ["completed", "cancelled", "on_hold"]
//	  assignment = ["in_progress", "completed"]
//	}
type policyFile struct {
	Transitions  []transitionBlock  `hcl:"transition,block"`
	Roles        []roleBlock        `hcl:"role,block"`
	Requirements *requirementsBlock `hcl:"requirements,block"`
}

type transitionBlock struct {
	From string   `hcl:"from,label"`
	To   []string `hcl:"to"`
}

type roleBlock struct {
	Name  string      `hcl:"name,label"`
	Allow []string    `hcl:"allow"`
	Deny  []denyBlock `hcl:"deny,block"`
}

type denyBlock struct {
	Status string `hcl:"status,label"`
	Reason string `hcl:"reason"`
}

type requirementsBlock struct {
	Comment    []string `hcl:"comment"`
	Assignment []string `hcl:"assignment"`
}

// LoadPolicyFile reads a policy override from an HCL file. Sections present
// in the file replace the corresponding part of the default policy; absent
// sections keep their defaults.
func LoadPolicyFile(path string) (Policy, error) {
	var file policyFile
	if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
		return Policy{}, fmt.Errorf("decode policy file %s: %w", path, err)
	}
	return mergePolicy(DefaultPolicy(), file)
}

func mergePolicy(base Policy, file policyFile) (Policy, error) {
	if len(file.Transitions) > 0 {
		graph := make(map[entity.JobStatus][]entity.JobStatus, len(file.Transitions))
		for _, block := range file.Transitions {
			from, err := entity.ParseJobStatus(block.From)
			if err != nil {
				return Policy{}, fmt.Errorf("transition block: %w", err)
			}
			targets, err := parseStatusList(block.To)
			if err != nil {
				return Policy{}, fmt.Errorf("transition %q: %w", block.From, err)
			}
			graph[from] = targets
		}
		base.Transitions = graph
	}

	if len(file.Roles) > 0 {
		allow := make(map[entity.Role][]entity.JobStatus, len(file.Roles))
		forbidden := make(map[entity.Role]map[entity.JobStatus]string)
		for _, block := range file.Roles {
			role, err := entity.ParseRole(block.Name)
			if err != nil {
				return Policy{}, fmt.Errorf("role block: %w", err)
			}
			statuses, err := parseStatusList(block.Allow)
			if err != nil {
				return Policy{}, fmt.Errorf("role %q allow: %w", block.Name, err)
			}
			allow[role] = statuses
			for _, deny := range block.Deny {
				target, err := entity.ParseJobStatus(deny.Status)
				if err != nil {
					return Policy{}, fmt.Errorf("role %q deny: %w", block.Name, err)
				}
				if forbidden[role] == nil {
					forbidden[role] = make(map[entity.JobStatus]string)
				}
				forbidden[role][target] = deny.Reason
			}
		}
		base.RoleAllow = allow
		base.ForbiddenEdges = forbidden
	}

	if file.Requirements != nil {
		comment, err := parseStatusList(file.Requirements.Comment)
		if err != nil {
			return Policy{}, fmt.Errorf("requirements comment: %w", err)
		}
		assignment, err := parseStatusList(file.Requirements.Assignment)
		if err != nil {
			return Policy{}, fmt.Errorf("requirements assignment: %w", err)
		}
		base.CommentRequired = comment
		base.AssignmentRequired = assignment
	}

	return base, nil
}

func parseStatusList(raw []string) ([]entity.JobStatus, error) {
	out := make([]entity.JobStatus, 0, len(raw))
	for _, s := range raw {
		st, err := entity.ParseJobStatus(s)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
