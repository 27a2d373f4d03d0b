package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/complyline/compliance-backend/internal/pkg/errors"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
	"github.com/complyline/compliance-backend/internal/platform/captures"
)

// CaptureHandler receives raw JSON documents from a capture session
// and stores them for the reconciliation passes to consume.
type CaptureHandler struct {
	store captures.Store
	log   *logger.Logger
}

func NewCaptureHandler(store captures.Store, baseLog *logger.Logger) *CaptureHandler {
	return &CaptureHandler{
		store: store,
		log:   baseLog.With("handler", "CaptureHandler"),
	}
}

type putCaptureRequest struct {
	Key     string          `json:"key" binding:"required"`
	Source  string          `json:"source" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

func (h *CaptureHandler) PutCapture(c *gin.Context) {
	var req putCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_capture", err)
		return
	}
	if !json.Valid(req.Payload) {
		RespondError(c, http.StatusBadRequest, "invalid_capture", pkgerrors.ErrInvalidArgument)
		return
	}
	if err := h.store.Put(c.Request.Context(), req.Key, req.Source, req.Payload); err != nil {
		h.log.Error("PutCapture failed", "error", err, "key", req.Key)
		RespondError(c, http.StatusInternalServerError, "store_capture_failed", err)
		return
	}
	RespondOK(c, gin.H{"key": req.Key, "source": req.Source})
}

func (h *CaptureHandler) ListCaptures(c *gin.Context) {
	source := c.Query("source")
	if source == "" {
		RespondError(c, http.StatusBadRequest, "missing_source", pkgerrors.ErrInvalidArgument)
		return
	}
	docs, err := h.store.List(c.Request.Context(), source)
	if err != nil {
		h.log.Error("ListCaptures failed", "error", err, "source", source)
		RespondError(c, http.StatusInternalServerError, "list_captures_failed", err)
		return
	}
	RespondOK(c, gin.H{"captures": docs})
}
