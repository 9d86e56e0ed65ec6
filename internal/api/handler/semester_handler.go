package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"istc-sms/backend/internal/dto"
	"istc-sms/backend/internal/service"
	"istc-sms/backend/pkg/response"
)

// SemesterHandler semester endpoints
type SemesterHandler struct {
	semesterSvc service.SemesterService
}

// NewSemesterHandler creates a SemesterHandler
func NewSemesterHandler(semesterSvc service.SemesterService) *SemesterHandler {
	return &SemesterHandler{semesterSvc: semesterSvc}
}

// ListSemesters lists semesters
// GET /api/v1/semesters
func (h *SemesterHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.semesterSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": semesters})
}

// GetSemester returns one semester
// GET /api/v1/semesters/:id
func (h *SemesterHandler) GetSemester(c *gin.Context) {
	semester, err := h.semesterSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, semester)
}

// CreateSemester creates a semester
// POST /api/v1/semesters
func (h *SemesterHandler) CreateSemester(c *gin.Context) {
	var req dto.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	semester, err := h.semesterSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.Created(c, semester)
}

// DMCEligible lists students with no failing result in the semester
// GET /api/v1/semesters/:id/dmc-eligible
func (h *SemesterHandler) DMCEligible(c *gin.Context) {
	students, err := h.semesterSvc.DMCEligible(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, gin.H{"list": students})
}

func (h *SemesterHandler) handleSemesterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownSemester):
		fail(c, err, 11001, "semester not found")
	default:
		response.InternalError(c)
	}
}
