package services

import (
	"context"
	"fmt"

	"github.com/complyline/compliance-backend/internal/data/repos"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

// GraphStatus is a point-in-time snapshot of the canonical graph:
// entity and edge counts plus the most connected policy and control.
type GraphStatus struct {
	Certifications     int64 `json:"certifications"`
	Clauses            int64 `json:"clauses"`
	Controls           int64 `json:"controls"`
	Policies           int64 `json:"policies"`
	FrameworkStandards int64 `json:"framework_standards"`

	ClausePolicyEdges  int64 `json:"clause_policy_edges"`
	ClauseControlEdges int64 `json:"clause_control_edges"`
	PolicyControlEdges int64 `json:"policy_control_edges"`

	MostLinkedPolicy  *repos.LinkStats `json:"most_linked_policy,omitempty"`
	MostLinkedControl *repos.LinkStats `json:"most_linked_control,omitempty"`
}

type GraphStatusService struct {
	certifications repos.CertificationRepo
	clauses        repos.ClauseRepo
	controls       repos.ControlRepo
	policies       repos.PolicyRepo
	standards      repos.FrameworkStandardRepo
	links          repos.LinkRepo
	log            *logger.Logger
}

func NewGraphStatusService(
	certifications repos.CertificationRepo,
	clauses repos.ClauseRepo,
	controls repos.ControlRepo,
	policies repos.PolicyRepo,
	standards repos.FrameworkStandardRepo,
	links repos.LinkRepo,
	baseLog *logger.Logger,
) *GraphStatusService {
	return &GraphStatusService{
		certifications: certifications,
		clauses:        clauses,
		controls:       controls,
		policies:       policies,
		standards:      standards,
		links:          links,
		log:            baseLog.With("service", "GraphStatusService"),
	}
}

func (s *GraphStatusService) Snapshot(ctx context.Context) (*GraphStatus, error) {
	var (
		out GraphStatus
		err error
	)
	if out.Certifications, err = s.certifications.Count(ctx, nil); err != nil {
		return nil, fmt.Errorf("count certifications: %w", err)
	}
	if out.Clauses, err = s.clauses.Count(ctx, nil); err != nil {
		return nil, fmt.Errorf("count clauses: %w", err)
	}
	if out.Controls, err = s.controls.Count(ctx, nil); err != nil {
		return nil, fmt.Errorf("count controls: %w", err)
	}
	if out.Policies, err = s.policies.Count(ctx, nil); err != nil {
		return nil, fmt.Errorf("count policies: %w", err)
	}
	if out.FrameworkStandards, err = s.standards.Count(ctx, nil); err != nil {
		return nil, fmt.Errorf("count framework standards: %w", err)
	}
	if out.ClausePolicyEdges, err = s.links.CountClausePolicy(ctx, nil); err != nil {
		return nil, fmt.Errorf("count clause-policy edges: %w", err)
	}
	if out.ClauseControlEdges, err = s.links.CountClauseControl(ctx, nil); err != nil {
		return nil, fmt.Errorf("count clause-control edges: %w", err)
	}
	if out.PolicyControlEdges, err = s.links.CountPolicyControl(ctx, nil); err != nil {
		return nil, fmt.Errorf("count policy-control edges: %w", err)
	}
	if out.MostLinkedPolicy, err = s.links.MostLinkedPolicy(ctx, nil); err != nil {
		return nil, fmt.Errorf("most linked policy: %w", err)
	}
	if out.MostLinkedControl, err = s.links.MostLinkedControl(ctx, nil); err != nil {
		return nil, fmt.Errorf("most linked control: %w", err)
	}
	return &out, nil
}
