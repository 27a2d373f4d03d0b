package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pkgerrors "github.com/complyline/compliance-backend/internal/pkg/errors"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
	"github.com/complyline/compliance-backend/internal/services"
)

type SyncLockHandler struct {
	locks *services.SyncLockService
	log   *logger.Logger
}

func NewSyncLockHandler(locks *services.SyncLockService, baseLog *logger.Logger) *SyncLockHandler {
	return &SyncLockHandler{
		locks: locks,
		log:   baseLog.With("handler", "SyncLockHandler"),
	}
}

// AcquireLock takes a source lock manually, for capture sessions that
// want to shut out sync triggers while they write.
func (h *SyncLockHandler) AcquireLock(c *gin.Context) {
	source := c.Param("source")
	holder := c.Query("holder")
	if holder == "" {
		holder = uuid.New().String()
	}
	if err := h.locks.Acquire(c.Request.Context(), source, holder); err != nil {
		if errors.Is(err, pkgerrors.ErrLockHeld) {
			RespondError(c, http.StatusConflict, "lock_held", err)
			return
		}
		h.log.Error("AcquireLock failed", "error", err, "source", source)
		RespondError(c, http.StatusInternalServerError, "lock_acquire_failed", err)
		return
	}
	RespondOK(c, gin.H{"source": source, "holder": holder})
}

func (h *SyncLockHandler) GetLock(c *gin.Context) {
	state, err := h.locks.Check(c.Request.Context(), c.Param("source"))
	if err != nil {
		h.log.Error("GetLock failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "lock_check_failed", err)
		return
	}
	RespondOK(c, state)
}

// ReleaseLock force-releases a source lock left behind by a crashed
// pass. The holder query parameter must match the current holder.
func (h *SyncLockHandler) ReleaseLock(c *gin.Context) {
	source := c.Param("source")
	holder := c.Query("holder")
	if err := h.locks.Release(c.Request.Context(), source, holder); err != nil {
		h.log.Error("ReleaseLock failed", "error", err, "source", source)
		RespondError(c, http.StatusInternalServerError, "lock_release_failed", err)
		return
	}
	RespondOK(c, gin.H{"source": source, "released": true})
}
