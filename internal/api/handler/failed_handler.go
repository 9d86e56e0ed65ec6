package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"istc-sms/backend/internal/service"
	"istc-sms/backend/pkg/response"
)

// FailedHandler failed-subjects ledger endpoints
type FailedHandler struct {
	ledgerSvc service.FailedLedgerService
}

// NewFailedHandler creates a FailedHandler
func NewFailedHandler(ledgerSvc service.FailedLedgerService) *FailedHandler {
	return &FailedHandler{ledgerSvc: ledgerSvc}
}

// ListFailed lists the failed subjects of a student
// GET /api/v1/failed/:student_id
func (h *FailedHandler) ListFailed(c *gin.Context) {
	entries, err := h.ledgerSvc.List(c.Request.Context(), c.Param("student_id"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownStudent) {
			fail(c, err, 13001, "student not found")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": entries})
}

// Reconcile reports divergences between the ledger, result grades and
// grace pools. Nothing is corrected.
// GET /api/v1/reconcile
func (h *FailedHandler) Reconcile(c *gin.Context) {
	report, err := h.ledgerSvc.Reconcile(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, report)
}
