package service

import (
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"istc-sms/backend/config"
	"istc-sms/backend/internal/grading"
	"istc-sms/backend/internal/repository"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// Service aggregates every service
type Service struct {
	Semester     SemesterService
	Subject      SubjectService
	Student      StudentService
	Result       ResultLedgerService
	ResultImport ResultImportService
	GracePool    GracePoolService
	Grace        GraceService
	FailedLedger FailedLedgerService
	Export       ExportService
}

// NewService wires every service. progress may be nil, in which case import
// progress is only logged.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	scale *grading.Scale,
	progress ProgressStore,
	logger *zap.Logger,
) *Service {
	gracePercent := grading.DefaultGracePercent
	if cfg.Grading.GracePercent > 0 {
		gracePercent = decimal.NewFromFloat(cfg.Grading.GracePercent)
	}

	ledger := NewFailedLedgerService(repo, scale, logger)
	results := NewResultLedgerService(repo, scale, ledger, cfg.Grading.SessionalCap, logger)
	pools := NewGracePoolService(repo, gracePercent, logger)

	return &Service{
		Semester:     NewSemesterService(repo, scale, logger),
		Subject:      NewSubjectService(repo, logger),
		Student:      NewStudentService(repo, pools, cfg.Import.MaxRows, logger),
		Result:       results,
		ResultImport: NewResultImportService(repo, results, progress, cfg.Import.MaxRows, logger),
		GracePool:    pools,
		Grace:        NewGraceService(repo, scale, ledger, logger),
		FailedLedger: ledger,
		Export:       NewExportService(repo, logger),
	}
}

// ── helpers ──

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
