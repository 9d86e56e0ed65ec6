package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"istc-sms/backend/internal/dto"
	"istc-sms/backend/internal/grading"
	"istc-sms/backend/internal/model"
	"istc-sms/backend/internal/repository"
	pkgerrors "istc-sms/backend/pkg/errors"
)

// GraceService applies grace marks from a student's semester pool.
type GraceService interface {
	// ApplyGraceMarks adds grace to one result. Not idempotent: every
	// successful call consumes allowance.
	ApplyGraceMarks(ctx context.Context, studentID, subjectID string, grace int, approverID string) (*dto.AppliedGraceResponse, error)
	// Preview reports what ApplyGraceMarks would do without writing.
	Preview(ctx context.Context, studentID, subjectID string, grace int) (*dto.GracePreviewResponse, error)
	History(ctx context.Context, studentID string) ([]dto.GraceApplicationResponse, error)
}

type graceService struct {
	repo   *repository.Repository
	scale  *grading.Scale
	ledger FailedLedgerService
	logger *zap.Logger
}

// NewGraceService creates a GraceService
func NewGraceService(repo *repository.Repository, scale *grading.Scale, ledger FailedLedgerService, logger *zap.Logger) GraceService {
	return &graceService{repo: repo, scale: scale, ledger: ledger, logger: logger}
}

// graceTarget everything read before a grace application
type graceTarget struct {
	subject *model.Subject
	pool    *model.GracePool
	result  *model.Result
}

func (s *graceService) load(ctx context.Context, studentID, subjectID string) (*graceTarget, error) {
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: student_id=%s", ErrUnknownStudent, studentID)
		}
		s.logger.Error("load student", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	subject, err := s.repo.Subject.GetByID(ctx, subjectID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: subject_id=%s", ErrUnknownSubject, subjectID)
		}
		s.logger.Error("load subject", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}

	pool, err := loadPool(ctx, s.repo, s.logger, studentID, subject.SemesterID)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.Result.GetByKey(ctx, studentID, subjectID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: student_id=%s subject_id=%s", ErrResultNotFound, studentID, subjectID)
		}
		s.logger.Error("load result", zap.String("student_id", studentID), zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}

	return &graceTarget{subject: subject, pool: pool, result: result}, nil
}

// ────────────────────── ApplyGraceMarks ──────────────────────

func (s *graceService) ApplyGraceMarks(ctx context.Context, studentID, subjectID string, grace int, approverID string) (*dto.AppliedGraceResponse, error) {
	if grace < 0 {
		return nil, fmt.Errorf("%w: grace_marks=%d must not be negative", ErrInvalidGrace, grace)
	}
	if approverID == "" {
		return nil, fmt.Errorf("%w: approver is required", ErrMissingField)
	}

	t, err := s.load(ctx, studentID, subjectID)
	if err != nil {
		return nil, err
	}

	if grace > t.pool.Available() {
		return nil, fmt.Errorf("%w: requested=%d available=%d", ErrInsufficientGraceMarks, grace, t.pool.Available())
	}

	prevMark := t.result.OverallMark
	prevGrade := grading.Grade(t.result.Grade)
	newMark := prevMark.Add(decimal.NewFromInt(int64(grace)))
	if newMark.GreaterThan(decimal.NewFromInt(int64(t.subject.MaxMarks))) {
		return nil, fmt.Errorf("%w: %s + %d exceeds max marks %d", ErrInvalidGrace, prevMark, grace, t.subject.MaxMarks)
	}
	newGrade := s.scale.ClassifyMarks(newMark, t.subject.MaxMarks)

	var after *model.GracePool
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		ok, err := txRepo.GracePool.Consume(ctx, t.pool.GracePoolID, grace)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: requested=%d", ErrInsufficientGraceMarks, grace)
		}

		if err := txRepo.Result.ApplyGrace(ctx, t.result, newMark, string(newGrade), approverID); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return fmt.Errorf("%w: result_id=%s", ErrConcurrentUpdate, t.result.ResultID)
			}
			return err
		}

		if err := s.ledger.Sync(ctx, txRepo, t.result, t.subject.SemesterID, prevGrade, newGrade); err != nil {
			return err
		}

		if err := txRepo.GraceApplication.Create(ctx, &model.GraceApplication{
			StudentID:     studentID,
			SubjectID:     subjectID,
			SemesterID:    t.subject.SemesterID,
			ResultID:      t.result.ResultID,
			GraceMarks:    grace,
			PreviousMark:  prevMark,
			NewMark:       newMark,
			PreviousGrade: string(prevGrade),
			NewGrade:      string(newGrade),
			ApprovedBy:    approverID,
		}); err != nil {
			return err
		}

		after, err = txRepo.GracePool.GetByStudentSemester(ctx, studentID, t.subject.SemesterID)
		return err
	})
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindUnknown {
			s.logger.Error("apply grace marks",
				zap.String("student_id", studentID),
				zap.String("subject_id", subjectID),
				zap.Int("grace", grace),
				zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("grace marks applied",
		zap.String("student_id", studentID),
		zap.String("subject_id", subjectID),
		zap.Int("grace", grace),
		zap.String("previous_grade", string(prevGrade)),
		zap.String("new_grade", string(newGrade)),
		zap.String("approved_by", approverID))

	return &dto.AppliedGraceResponse{
		StudentID:          studentID,
		SubjectID:          subjectID,
		PreviousMark:       prevMark,
		NewMark:            newMark,
		PreviousGrade:      string(prevGrade),
		NewGrade:           string(newGrade),
		Passed:             !s.scale.IsFailing(newGrade),
		UsedGrace:          after.UsedGrace,
		TotalGrace:         after.TotalGrace,
		RemainingAllowance: after.Available(),
	}, nil
}

// ────────────────────── Preview ──────────────────────

func (s *graceService) Preview(ctx context.Context, studentID, subjectID string, grace int) (*dto.GracePreviewResponse, error) {
	if grace < 0 {
		return nil, fmt.Errorf("%w: grace_marks=%d must not be negative", ErrInvalidGrace, grace)
	}

	t, err := s.load(ctx, studentID, subjectID)
	if err != nil {
		return nil, err
	}

	maxMarks := decimal.NewFromInt(int64(t.subject.MaxMarks))
	passing := s.scale.PassingMarks(t.subject.MaxMarks)
	required := 0
	if gap := decimal.NewFromInt(int64(passing)).Sub(t.result.OverallMark); gap.IsPositive() {
		required = int(gap.Ceil().IntPart())
	}

	projected := t.result.OverallMark.Add(decimal.NewFromInt(int64(grace)))
	projectedGrade := s.scale.ClassifyMarks(projected, t.subject.MaxMarks)

	return &dto.GracePreviewResponse{
		StudentID:      studentID,
		SubjectID:      subjectID,
		MaxMarks:       t.subject.MaxMarks,
		CurrentMark:    t.result.OverallMark,
		CurrentGrade:   t.result.Grade,
		PassingMarks:   passing,
		GraceRequired:  required,
		Available:      t.pool.Available(),
		GraceMarks:     grace,
		ProjectedMark:  projected,
		ProjectedGrade: string(projectedGrade),
		WouldPass:      !s.scale.IsFailing(projectedGrade),
		CanApply:       grace <= t.pool.Available() && !projected.GreaterThan(maxMarks),
	}, nil
}

// ────────────────────── History ──────────────────────

func (s *graceService) History(ctx context.Context, studentID string) ([]dto.GraceApplicationResponse, error) {
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: student_id=%s", ErrUnknownStudent, studentID)
		}
		s.logger.Error("load student", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	apps, err := s.repo.GraceApplication.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("list grace applications", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	resp := make([]dto.GraceApplicationResponse, 0, len(apps))
	for _, a := range apps {
		resp = append(resp, dto.GraceApplicationResponse{
			ID:            a.GraceApplicationID,
			SubjectID:     a.SubjectID,
			SemesterID:    a.SemesterID,
			GraceMarks:    a.GraceMarks,
			PreviousMark:  a.PreviousMark,
			NewMark:       a.NewMark,
			PreviousGrade: a.PreviousGrade,
			NewGrade:      a.NewGrade,
			ApprovedBy:    a.ApprovedBy,
			CreatedAt:     a.CreatedAt.Format(timeLayout),
		})
	}
	return resp, nil
}
