package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/complyline/compliance-backend/internal/modules/reconcile"
	pkgerrors "github.com/complyline/compliance-backend/internal/pkg/errors"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
	"github.com/complyline/compliance-backend/internal/services"
)

// Pass is one runnable ingestion pass. Every syncer in the system
// satisfies it.
type Pass interface {
	Run(ctx context.Context) (*reconcile.Summary, error)
}

// SyncHandler exposes the ingestion passes as trigger endpoints. Each
// pass runs under a per-source sync lock so concurrent triggers for
// the same source are rejected instead of interleaved.
type SyncHandler struct {
	locks *services.SyncLockService
	log   *logger.Logger

	sections       Pass
	policyControls Pass
	standards      Pass

	frameworks Pass
	clauses    Pass
	controls   Pass
	policies   Pass
}

type SyncHandlerConfig struct {
	Locks *services.SyncLockService

	TrustCloudSections       Pass
	TrustCloudPolicyControls Pass
	TrustCloudStandards      Pass

	ErambaFrameworks Pass
	ErambaClauses    Pass
	ErambaControls   Pass
	ErambaPolicies   Pass
}

func NewSyncHandler(cfg SyncHandlerConfig, baseLog *logger.Logger) *SyncHandler {
	return &SyncHandler{
		locks:          cfg.Locks,
		log:            baseLog.With("handler", "SyncHandler"),
		sections:       cfg.TrustCloudSections,
		policyControls: cfg.TrustCloudPolicyControls,
		standards:      cfg.TrustCloudStandards,
		frameworks:     cfg.ErambaFrameworks,
		clauses:        cfg.ErambaClauses,
		controls:       cfg.ErambaControls,
		policies:       cfg.ErambaPolicies,
	}
}

func (h *SyncHandler) run(c *gin.Context, source string, pass Pass) {
	ctx := c.Request.Context()
	holder := uuid.New().String()

	if err := h.locks.Acquire(ctx, source, holder); err != nil {
		if errors.Is(err, pkgerrors.ErrLockHeld) {
			RespondError(c, http.StatusConflict, "sync_in_progress", err)
			return
		}
		h.log.Error("lock acquire failed", "source", source, "error", err)
		RespondError(c, http.StatusInternalServerError, "lock_failed", err)
		return
	}
	defer func() {
		if err := h.locks.Release(context.WithoutCancel(ctx), source, holder); err != nil {
			h.log.Error("lock release failed", "source", source, "error", err)
		}
	}()

	sum, err := pass.Run(ctx)
	if err != nil {
		h.log.Error("sync pass failed", "source", source, "error", err)
	}
	RespondSummary(c, sum)
}

func (h *SyncHandler) TrustCloudSections(c *gin.Context) {
	h.run(c, "trustcloud_sections", h.sections)
}

func (h *SyncHandler) TrustCloudPolicyControls(c *gin.Context) {
	h.run(c, "trustcloud_policy_controls", h.policyControls)
}

func (h *SyncHandler) TrustCloudStandards(c *gin.Context) {
	h.run(c, "trustcloud_standards", h.standards)
}

func (h *SyncHandler) ErambaFrameworks(c *gin.Context) {
	h.run(c, "eramba_frameworks", h.frameworks)
}

func (h *SyncHandler) ErambaClauses(c *gin.Context) {
	h.run(c, "eramba_clauses", h.clauses)
}

func (h *SyncHandler) ErambaControls(c *gin.Context) {
	h.run(c, "eramba_controls", h.controls)
}

func (h *SyncHandler) ErambaPolicies(c *gin.Context) {
	h.run(c, "eramba_policies", h.policies)
}
