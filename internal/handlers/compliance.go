package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/complyline/compliance-backend/internal/data/repos"
	pkgerrors "github.com/complyline/compliance-backend/internal/pkg/errors"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
	"github.com/complyline/compliance-backend/internal/services"
)

// ComplianceHandler serves read access to the canonical graph plus
// the derived clause-parent pass.
type ComplianceHandler struct {
	certifications repos.CertificationRepo
	clauses        repos.ClauseRepo
	controls       repos.ControlRepo
	policies       repos.PolicyRepo
	standards      repos.FrameworkStandardRepo
	links          repos.LinkRepo
	status         *services.GraphStatusService
	parents        *services.ClauseParentService
	log            *logger.Logger
}

type ComplianceHandlerConfig struct {
	Certifications repos.CertificationRepo
	Clauses        repos.ClauseRepo
	Controls       repos.ControlRepo
	Policies       repos.PolicyRepo
	Standards      repos.FrameworkStandardRepo
	Links          repos.LinkRepo
	Status         *services.GraphStatusService
	Parents        *services.ClauseParentService
}

func NewComplianceHandler(cfg ComplianceHandlerConfig, baseLog *logger.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		certifications: cfg.Certifications,
		clauses:        cfg.Clauses,
		controls:       cfg.Controls,
		policies:       cfg.Policies,
		standards:      cfg.Standards,
		links:          cfg.Links,
		status:         cfg.Status,
		parents:        cfg.Parents,
		log:            baseLog.With("handler", "ComplianceHandler"),
	}
}

func (h *ComplianceHandler) ListCertifications(c *gin.Context) {
	certs, err := h.certifications.GetAll(c.Request.Context(), nil)
	if err != nil {
		h.log.Error("ListCertifications failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_certifications_failed", err)
		return
	}
	RespondOK(c, gin.H{"certifications": certs})
}

func (h *ComplianceHandler) ListCertificationClauses(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_certification_id", err)
		return
	}
	clauses, err := h.clauses.GetByCertification(c.Request.Context(), nil, id)
	if err != nil {
		h.log.Error("ListCertificationClauses failed", "error", err, "certification_id", id)
		RespondError(c, http.StatusInternalServerError, "load_clauses_failed", err)
		return
	}
	RespondOK(c, gin.H{"clauses": clauses})
}

func (h *ComplianceHandler) GetClause(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_clause_id", err)
		return
	}
	ctx := c.Request.Context()
	clause, err := h.clauses.GetByID(ctx, nil, id)
	if err != nil {
		h.log.Error("GetClause failed", "error", err, "clause_id", id)
		RespondError(c, http.StatusInternalServerError, "load_clause_failed", err)
		return
	}
	if clause == nil {
		RespondError(c, http.StatusNotFound, "clause_not_found", pkgerrors.ErrNotFound)
		return
	}
	policyIDs, err := h.links.PolicyIDsForClause(ctx, nil, id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "load_clause_failed", err)
		return
	}
	controlIDs, err := h.links.ControlIDsForClause(ctx, nil, id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "load_clause_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"clause":      clause,
		"policy_ids":  policyIDs,
		"control_ids": controlIDs,
	})
}

func (h *ComplianceHandler) GetControl(c *gin.Context) {
	shortName := c.Param("short_name")
	ctx := c.Request.Context()
	control, err := h.controls.GetByShortName(ctx, nil, shortName)
	if err != nil {
		h.log.Error("GetControl failed", "error", err, "short_name", shortName)
		RespondError(c, http.StatusInternalServerError, "load_control_failed", err)
		return
	}
	if control == nil {
		RespondError(c, http.StatusNotFound, "control_not_found", pkgerrors.ErrNotFound)
		return
	}
	standards, err := h.standards.GetByControl(ctx, nil, control.ID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "load_control_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"control":   control,
		"standards": standards,
	})
}

func (h *ComplianceHandler) GetPolicy(c *gin.Context) {
	ref := c.Param("reference")
	ctx := c.Request.Context()
	policy, err := h.policies.GetByReference(ctx, nil, ref)
	if err != nil {
		h.log.Error("GetPolicy failed", "error", err, "reference", ref)
		RespondError(c, http.StatusInternalServerError, "load_policy_failed", err)
		return
	}
	if policy == nil {
		if policy, err = h.policies.GetByPolicyID(ctx, nil, ref); err != nil {
			RespondError(c, http.StatusInternalServerError, "load_policy_failed", err)
			return
		}
	}
	if policy == nil {
		RespondError(c, http.StatusNotFound, "policy_not_found", pkgerrors.ErrNotFound)
		return
	}
	controlIDs, err := h.links.ControlIDsForPolicy(ctx, nil, policy.ID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "load_policy_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"policy":      policy,
		"control_ids": controlIDs,
	})
}

func (h *ComplianceHandler) GraphStatus(c *gin.Context) {
	snapshot, err := h.status.Snapshot(c.Request.Context())
	if err != nil {
		h.log.Error("GraphStatus failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "status_failed", err)
		return
	}
	RespondOK(c, snapshot)
}

func (h *ComplianceHandler) AssignClauseParents(c *gin.Context) {
	sum, err := h.parents.AssignParents(c.Request.Context())
	if err != nil {
		h.log.Error("AssignClauseParents failed", "error", err)
	}
	RespondSummary(c, sum)
}
