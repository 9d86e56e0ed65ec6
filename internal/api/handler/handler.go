package handler

import "istc-sms/backend/internal/service"

// Handler aggregates every HTTP handler
type Handler struct {
	Semester *SemesterHandler
	Subject  *SubjectHandler
	Student  *StudentHandler
	Result   *ResultHandler
	Grace    *GraceHandler
	Failed   *FailedHandler
	Export   *ExportHandler
}

// NewHandler creates the Handler aggregate
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Semester: NewSemesterHandler(svc.Semester),
		Subject:  NewSubjectHandler(svc.Subject),
		Student:  NewStudentHandler(svc.Student),
		Result:   NewResultHandler(svc.Result, svc.ResultImport),
		Grace:    NewGraceHandler(svc.Grace, svc.GracePool),
		Failed:   NewFailedHandler(svc.FailedLedger),
		Export:   NewExportHandler(svc.Export),
	}
}
