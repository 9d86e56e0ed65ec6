package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"istc-sms/backend/internal/dto"
	"istc-sms/backend/internal/grading"
	"istc-sms/backend/internal/model"
	"istc-sms/backend/internal/repository"
)

// GracePoolService creates and reads grace pools. A pool is created once per
// (student, semester) and never recomputed or reset.
type GracePoolService interface {
	// Allowance computes the grace allowance of a semester from its subjects.
	Allowance(ctx context.Context, semesterID string) (int, error)
	// Initialize creates the pool, rejecting with ErrGracePoolExists if one
	// is already present.
	Initialize(ctx context.Context, studentID, semesterID string) (*model.GracePool, error)
	Get(ctx context.Context, studentID, semesterID string) (*dto.GracePoolResponse, error)
}

type gracePoolService struct {
	repo    *repository.Repository
	percent decimal.Decimal
	logger  *zap.Logger
}

// NewGracePoolService creates a GracePoolService. percent is the share of
// the semester's total marks granted as grace.
func NewGracePoolService(repo *repository.Repository, percent decimal.Decimal, logger *zap.Logger) GracePoolService {
	return &gracePoolService{repo: repo, percent: percent, logger: logger}
}

// ────────────────────── Allowance ──────────────────────

func (s *gracePoolService) Allowance(ctx context.Context, semesterID string) (int, error) {
	if _, err := s.repo.Semester.GetByID(ctx, semesterID); err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("%w: semester_id=%s", ErrUnknownSemester, semesterID)
		}
		s.logger.Error("load semester", zap.String("semester_id", semesterID), zap.Error(err))
		return 0, err
	}

	subjects, err := s.repo.Subject.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("list subjects", zap.String("semester_id", semesterID), zap.Error(err))
		return 0, err
	}

	maxMarks := make([]int, 0, len(subjects))
	for _, sub := range subjects {
		maxMarks = append(maxMarks, sub.MaxMarks)
	}
	total, err := grading.ComputeAllowance(maxMarks, s.percent)
	if err != nil {
		return 0, fmt.Errorf("%w: semester_id=%s", err, semesterID)
	}
	return total, nil
}

// ────────────────────── Initialize ──────────────────────

func (s *gracePoolService) Initialize(ctx context.Context, studentID, semesterID string) (*model.GracePool, error) {
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: student_id=%s", ErrUnknownStudent, studentID)
		}
		s.logger.Error("load student", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	// read before write: an existing pool is never recomputed
	if _, err := s.repo.GracePool.GetByStudentSemester(ctx, studentID, semesterID); err == nil {
		return nil, fmt.Errorf("%w: student_id=%s semester_id=%s", ErrGracePoolExists, studentID, semesterID)
	} else if !isNotFound(err) {
		s.logger.Error("load grace pool", zap.String("student_id", studentID), zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}

	total, err := s.Allowance(ctx, semesterID)
	if err != nil {
		return nil, err
	}

	pool := &model.GracePool{
		StudentID:  studentID,
		SemesterID: semesterID,
		TotalGrace: total,
		UsedGrace:  0,
	}
	if err := s.repo.GracePool.Create(ctx, pool); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: student_id=%s semester_id=%s", ErrGracePoolExists, studentID, semesterID)
		}
		s.logger.Error("create grace pool", zap.String("student_id", studentID), zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("grace pool initialised",
		zap.String("student_id", studentID),
		zap.String("semester_id", semesterID),
		zap.Int("total_grace", total))
	return pool, nil
}

// ────────────────────── Get ──────────────────────

func (s *gracePoolService) Get(ctx context.Context, studentID, semesterID string) (*dto.GracePoolResponse, error) {
	pool, err := loadPool(ctx, s.repo, s.logger, studentID, semesterID)
	if err != nil {
		return nil, err
	}
	return &dto.GracePoolResponse{
		ID:         pool.GracePoolID,
		StudentID:  pool.StudentID,
		SemesterID: pool.SemesterID,
		TotalGrace: pool.TotalGrace,
		UsedGrace:  pool.UsedGrace,
		Available:  pool.Available(),
	}, nil
}

// loadPool reads a pool and treats broken counters as fatal for the record.
func loadPool(ctx context.Context, repo *repository.Repository, logger *zap.Logger, studentID, semesterID string) (*model.GracePool, error) {
	pool, err := repo.GracePool.GetByStudentSemester(ctx, studentID, semesterID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: student_id=%s semester_id=%s", ErrNoGracePool, studentID, semesterID)
		}
		logger.Error("load grace pool", zap.String("student_id", studentID), zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}
	if !pool.Consistent() {
		logger.Error("consistency finding",
			zap.String("kind", FindingPoolInconsistent),
			zap.String("student_id", studentID),
			zap.String("semester_id", semesterID),
			zap.String("grace_pool_id", pool.GracePoolID),
			zap.Int("used_grace", pool.UsedGrace),
			zap.Int("total_grace", pool.TotalGrace),
			zap.Error(ErrPoolInconsistent))
		return nil, fmt.Errorf("%w: grace_pool_id=%s used=%d total=%d", ErrPoolInconsistent, pool.GracePoolID, pool.UsedGrace, pool.TotalGrace)
	}
	return pool, nil
}
