package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"istc-sms/backend/internal/dto"
	"istc-sms/backend/internal/service"
	"istc-sms/backend/pkg/response"
)

// GraceHandler grace pool and grace application endpoints
type GraceHandler struct {
	graceSvc service.GraceService
	poolSvc  service.GracePoolService
}

// NewGraceHandler creates a GraceHandler
func NewGraceHandler(graceSvc service.GraceService, poolSvc service.GracePoolService) *GraceHandler {
	return &GraceHandler{graceSvc: graceSvc, poolSvc: poolSvc}
}

// ApplyGrace adds grace marks to a result and regrades it
// POST /api/v1/grace/apply
func (h *GraceHandler) ApplyGrace(c *gin.Context) {
	var req dto.ApplyGraceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "student_id, subject_id and grace_marks are required")
		return
	}

	approverID, ok := actorID(c)
	if !ok {
		return
	}

	resp, err := h.graceSvc.ApplyGraceMarks(c.Request.Context(), req.StudentID, req.SubjectID, *req.GraceMarks, approverID)
	if err != nil {
		h.handleGraceError(c, err)
		return
	}

	response.OK(c, resp)
}

// PreviewGrace shows what a grace application would do without writing
// GET /api/v1/grace/preview?student_id=&subject_id=&grace_marks=
func (h *GraceHandler) PreviewGrace(c *gin.Context) {
	var req dto.GracePreviewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}

	resp, err := h.graceSvc.Preview(c.Request.Context(), req.StudentID, req.SubjectID, req.GraceMarks)
	if err != nil {
		h.handleGraceError(c, err)
		return
	}

	response.OK(c, resp)
}

// GraceHistory lists grace applications of a student
// GET /api/v1/grace/history/:student_id
func (h *GraceHandler) GraceHistory(c *gin.Context) {
	history, err := h.graceSvc.History(c.Request.Context(), c.Param("student_id"))
	if err != nil {
		h.handleGraceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": history})
}

// GetPool returns the grace pool of a student in a semester
// GET /api/v1/grace-pools/:student_id/:semester_id
func (h *GraceHandler) GetPool(c *gin.Context) {
	pool, err := h.poolSvc.Get(c.Request.Context(), c.Param("student_id"), c.Param("semester_id"))
	if err != nil {
		h.handleGraceError(c, err)
		return
	}

	response.OK(c, pool)
}

func (h *GraceHandler) handleGraceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownStudent):
		fail(c, err, 13001, "student not found")
	case errors.Is(err, service.ErrUnknownSubject):
		fail(c, err, 12001, "subject not found")
	case errors.Is(err, service.ErrResultNotFound):
		fail(c, err, 14001, "result not found")
	case errors.Is(err, service.ErrNoGracePool):
		fail(c, err, 15001, "student has no grace pool for this semester")
	case errors.Is(err, service.ErrInsufficientGraceMarks):
		fail(c, err, 15002, "insufficient grace marks")
	case errors.Is(err, service.ErrInvalidGrace):
		fail(c, err, 15003, "invalid grace marks")
	case errors.Is(err, service.ErrMissingField):
		fail(c, err, 10001, "invalid parameters")
	case errors.Is(err, service.ErrPoolInconsistent):
		fail(c, err, 15004, "grace pool is inconsistent and needs manual review")
	case errors.Is(err, service.ErrConcurrentUpdate):
		fail(c, err, 15005, "result changed concurrently, reload and retry")
	default:
		response.InternalError(c)
	}
}
