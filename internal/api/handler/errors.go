package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "istc-sms/backend/pkg/errors"
	"istc-sms/backend/pkg/response"
)

// statusOf maps an error category to its HTTP status.
func statusOf(err error) int {
	switch pkgerrors.KindOf(err) {
	case pkgerrors.KindValidation:
		return http.StatusBadRequest
	case pkgerrors.KindNotFound:
		return http.StatusNotFound
	case pkgerrors.KindPolicy:
		return http.StatusUnprocessableEntity
	case pkgerrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes a categorised service error with its business code. Errors
// without a category become a bare 500 so driver messages never reach clients.
func fail(c *gin.Context, err error, code int, message string) {
	if pkgerrors.KindOf(err) == pkgerrors.KindUnknown {
		response.InternalError(c)
		return
	}
	response.ErrorWithDetails(c, statusOf(err), code, message, err.Error())
}

// failStatus is fail with an explicit status.
func failStatus(c *gin.Context, status int, err error, code int, message string) {
	response.ErrorWithDetails(c, status, code, message, err.Error())
}
