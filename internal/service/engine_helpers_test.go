package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"istc-sms/backend/internal/grading"
	"istc-sms/backend/internal/model"
	"istc-sms/backend/internal/repository"
	"istc-sms/backend/internal/testutil"
)

// sqliteEngine wires the grading services over a real in-memory database.
type sqliteEngine struct {
	db      *gorm.DB
	repo    *repository.Repository
	fx      *testutil.Fixture
	results ResultLedgerService
	grace   GraceService
	ledger  FailedLedgerService
	pools   GracePoolService
}

func setupSQLiteEngine(t *testing.T, logger *zap.Logger) *sqliteEngine {
	t.Helper()
	if logger == nil {
		logger = zap.NewNop()
	}
	db := testutil.NewSQLiteDB(t)
	repo := repository.NewRepository(db)
	scale := grading.DefaultScale()
	ledger := NewFailedLedgerService(repo, scale, logger)

	return &sqliteEngine{
		db:      db,
		repo:    repo,
		fx:      testutil.Seed(t, db),
		results: NewResultLedgerService(repo, scale, ledger, DefaultSessionalCap, logger),
		grace:   NewGraceService(repo, scale, ledger, logger),
		ledger:  ledger,
		pools:   NewGracePoolService(repo, grading.DefaultGracePercent, logger),
	}
}

// record grades and stores an initial result through the ledger service.
func (e *sqliteEngine) record(t *testing.T, studentID, subjectID, mark string) *model.Result {
	t.Helper()
	res, err := e.results.UpsertInitial(context.Background(), &InitialResult{
		StudentID:   studentID,
		SubjectID:   subjectID,
		OverallMark: decimal.RequireFromString(mark),
		TeacherID:   "T-1",
	})
	require.NoError(t, err)
	return res
}

func (e *sqliteEngine) pool(t *testing.T, studentID string) *model.GracePool {
	t.Helper()
	p, err := e.repo.GracePool.GetByStudentSemester(context.Background(), studentID, e.fx.Semester.SemesterID)
	require.NoError(t, err)
	return p
}

func (e *sqliteEngine) failed(t *testing.T, studentID string) []model.FailedSubject {
	t.Helper()
	entries, err := e.repo.FailedSubject.ListByStudent(context.Background(), studentID)
	require.NoError(t, err)
	return entries
}
