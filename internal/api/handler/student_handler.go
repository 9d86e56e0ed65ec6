package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"istc-sms/backend/internal/dto"
	"istc-sms/backend/internal/service"
	"istc-sms/backend/pkg/response"
)

// StudentHandler student onboarding endpoints
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler creates a StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// ImportStudents onboards students from an Excel sheet and creates their grace pools
// POST /api/v1/students/import (multipart: file, semester_id, branch_id)
func (h *StudentHandler) ImportStudents(c *gin.Context) {
	var req dto.ImportStudentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "semester_id and branch_id are required")
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 13003, "an .xlsx file is required")
		return
	}
	defer file.Close()

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rows, err := h.studentSvc.ParseOnboardingFile(file)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	resp, err := h.studentSvc.Onboard(c.Request.Context(), &req, rows, callerID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, resp)
}

func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportBadHeader):
		fail(c, err, 13003, "unreadable spreadsheet")
	case errors.Is(err, service.ErrImportNoData):
		fail(c, err, 13004, "spreadsheet has no data rows")
	case errors.Is(err, service.ErrImportTooManyRows):
		fail(c, err, 13005, "spreadsheet has too many rows")
	case errors.Is(err, service.ErrUnknownSemester):
		fail(c, err, 11001, "semester not found")
	case errors.Is(err, service.ErrInvalidSemester):
		fail(c, err, 11002, "semester has no subjects")
	default:
		response.InternalError(c)
	}
}
