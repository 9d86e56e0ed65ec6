package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"istc-sms/backend/internal/dto"
	"istc-sms/backend/internal/service"
	"istc-sms/backend/pkg/response"
)

// SubjectHandler subject endpoints
type SubjectHandler struct {
	subjectSvc service.SubjectService
}

// NewSubjectHandler creates a SubjectHandler
func NewSubjectHandler(subjectSvc service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectSvc: subjectSvc}
}

// ListSubjects lists subjects, optionally of one semester
// GET /api/v1/subjects?semester_id=xxx
func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	var req dto.SubjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}

	subjects, err := h.subjectSvc.List(c.Request.Context(), req.SemesterID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": subjects})
}

// CreateSubject creates a subject
// POST /api/v1/subjects
func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	subject, err := h.subjectSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.Created(c, subject)
}

// UpdateSubject edits a subject no result refers to yet
// PUT /api/v1/subjects/:id
func (h *SubjectHandler) UpdateSubject(c *gin.Context) {
	var req dto.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	subject, err := h.subjectSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	response.OK(c, subject)
}

func (h *SubjectHandler) handleSubjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownSubject):
		fail(c, err, 12001, "subject not found")
	case errors.Is(err, service.ErrUnknownSemester):
		fail(c, err, 11001, "semester not found")
	case errors.Is(err, service.ErrDuplicateSubject):
		failStatus(c, http.StatusConflict, err, 12002, "subject code already exists")
	case errors.Is(err, service.ErrSubjectReferenced):
		failStatus(c, http.StatusConflict, err, 12003, "subject already has results and cannot change")
	default:
		response.InternalError(c)
	}
}
