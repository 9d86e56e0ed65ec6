package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"istc-sms/backend/internal/dto"
	"istc-sms/backend/internal/service"
	"istc-sms/backend/pkg/response"
)

// ResultHandler result read and import endpoints
type ResultHandler struct {
	resultSvc service.ResultLedgerService
	importSvc service.ResultImportService
}

// NewResultHandler creates a ResultHandler
func NewResultHandler(resultSvc service.ResultLedgerService, importSvc service.ResultImportService) *ResultHandler {
	return &ResultHandler{resultSvc: resultSvc, importSvc: importSvc}
}

// ListResults pages through results; teachers only see their own
// GET /api/v1/results
func (h *ResultHandler) ListResults(c *gin.Context) {
	var req dto.ResultListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid parameters")
		return
	}

	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	list, total, err := h.resultSvc.List(c.Request.Context(), &req, role, GetTeacherID(c))
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetResult returns the result of one student in one subject
// GET /api/v1/results/:student_id/:subject_id
func (h *ResultHandler) GetResult(c *gin.Context) {
	result, err := h.resultSvc.Get(c.Request.Context(), c.Param("student_id"), c.Param("subject_id"))
	if err != nil {
		h.handleResultError(c, err)
		return
	}

	response.OK(c, result)
}

// ImportResults records a spreadsheet of results row by row
// POST /api/v1/results/import (multipart: file, batch_id?)
func (h *ResultHandler) ImportResults(c *gin.Context) {
	var req dto.ImportResultRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "batch_id must be a uuid")
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 14006, "an .xlsx file is required")
		return
	}
	defer file.Close()

	teacherID, ok := actorID(c)
	if !ok {
		return
	}

	rows, err := h.importSvc.ParseImportFile(file)
	if err != nil {
		h.handleResultError(c, err)
		return
	}

	resp, err := h.importSvc.Import(c.Request.Context(), req.BatchID, rows, teacherID, h.importSvc.ProgressSink())
	if err != nil {
		h.handleResultError(c, err)
		return
	}

	response.OK(c, resp)
}

// ImportProgress reports how far a batch has got
// GET /api/v1/imports/:batch_id/progress
func (h *ResultHandler) ImportProgress(c *gin.Context) {
	progress, err := h.importSvc.Progress(c.Request.Context(), c.Param("batch_id"))
	if err != nil {
		h.handleResultError(c, err)
		return
	}

	response.OK(c, progress)
}

func (h *ResultHandler) handleResultError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrResultNotFound):
		fail(c, err, 14001, "result not found")
	case errors.Is(err, service.ErrImportNotFound):
		fail(c, err, 14004, "no progress recorded for this batch")
	case errors.Is(err, service.ErrProgressUnavailable):
		response.Error(c, http.StatusServiceUnavailable, 14005, "import progress tracking is not enabled")
	case errors.Is(err, service.ErrBatchInUse):
		fail(c, err, 14009, "batch_id is already in use, choose another")
	case errors.Is(err, service.ErrImportBadHeader):
		fail(c, err, 14006, "unreadable spreadsheet")
	case errors.Is(err, service.ErrImportNoData):
		fail(c, err, 14007, "spreadsheet has no data rows")
	case errors.Is(err, service.ErrImportTooManyRows):
		fail(c, err, 14008, "spreadsheet has too many rows")
	default:
		response.InternalError(c)
	}
}
