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
	"istc-sms/backend/pkg/jwt"
)

// DefaultSessionalCap is the maximum sessional exam mark when none is configured.
const DefaultSessionalCap = 50

// InitialResult the marks of a result being recorded for the first time
type InitialResult struct {
	StudentID     string
	SubjectID     string
	SessionalExam *decimal.Decimal
	EndTerm       *decimal.Decimal
	OverallMark   decimal.Decimal
	TeacherID     string
}

// ResultLedgerService owns result rows. Grades are always derived from the
// overall mark here or in GraceService, never accepted from callers.
type ResultLedgerService interface {
	// UpsertInitial records a first result. An existing result for the same
	// (student, subject) is never overwritten.
	UpsertInitial(ctx context.Context, in *InitialResult) (*model.Result, error)
	Get(ctx context.Context, studentID, subjectID string) (*dto.ResultResponse, error)
	List(ctx context.Context, req *dto.ResultListRequest, callerRole, callerTeacherID string) ([]dto.ResultResponse, int64, error)
}

type resultLedgerService struct {
	repo         *repository.Repository
	scale        *grading.Scale
	ledger       FailedLedgerService
	sessionalCap decimal.Decimal
	logger       *zap.Logger
}

// NewResultLedgerService creates a ResultLedgerService
func NewResultLedgerService(
	repo *repository.Repository,
	scale *grading.Scale,
	ledger FailedLedgerService,
	sessionalCap int,
	logger *zap.Logger,
) ResultLedgerService {
	if sessionalCap <= 0 {
		sessionalCap = DefaultSessionalCap
	}
	return &resultLedgerService{
		repo:         repo,
		scale:        scale,
		ledger:       ledger,
		sessionalCap: decimal.NewFromInt(int64(sessionalCap)),
		logger:       logger,
	}
}

// ────────────────────── UpsertInitial ──────────────────────

func (s *resultLedgerService) UpsertInitial(ctx context.Context, in *InitialResult) (*model.Result, error) {
	if in.StudentID == "" || in.SubjectID == "" || in.TeacherID == "" {
		return nil, fmt.Errorf("%w: student_id, subject_id and teacher_id are required", ErrMissingField)
	}

	if _, err := s.repo.Student.GetByID(ctx, in.StudentID); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: student_id=%s", ErrUnknownStudent, in.StudentID)
		}
		s.logger.Error("load student", zap.String("student_id", in.StudentID), zap.Error(err))
		return nil, err
	}

	subject, err := s.repo.Subject.GetByID(ctx, in.SubjectID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: subject_id=%s", ErrUnknownSubject, in.SubjectID)
		}
		s.logger.Error("load subject", zap.String("subject_id", in.SubjectID), zap.Error(err))
		return nil, err
	}

	if err := s.validateMarks(in, subject.MaxMarks); err != nil {
		return nil, err
	}

	// reject before writing; the unique index catches racing batches
	if _, err := s.repo.Result.GetByKey(ctx, in.StudentID, in.SubjectID); err == nil {
		return nil, fmt.Errorf("%w: student_id=%s subject_id=%s", ErrDuplicateResult, in.StudentID, in.SubjectID)
	} else if !isNotFound(err) {
		s.logger.Error("load result", zap.String("student_id", in.StudentID), zap.String("subject_id", in.SubjectID), zap.Error(err))
		return nil, err
	}

	grade := s.scale.ClassifyMarks(in.OverallMark, subject.MaxMarks)
	result := &model.Result{
		StudentID:     in.StudentID,
		SubjectID:     in.SubjectID,
		SessionalExam: nullDecimal(in.SessionalExam),
		EndTerm:       nullDecimal(in.EndTerm),
		OverallMark:   in.OverallMark,
		Grade:         string(grade),
		TeacherID:     in.TeacherID,
	}
	result.CreatedBy = &in.TeacherID
	result.UpdatedBy = &in.TeacherID

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Result.Create(ctx, result); err != nil {
			return err
		}
		return s.ledger.Sync(ctx, txRepo, result, subject.SemesterID, "", grade)
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: student_id=%s subject_id=%s", ErrDuplicateResult, in.StudentID, in.SubjectID)
		}
		s.logger.Error("create result",
			zap.String("student_id", in.StudentID),
			zap.String("subject_id", in.SubjectID),
			zap.Error(err))
		return nil, err
	}

	result.Subject = subject
	return result, nil
}

func (s *resultLedgerService) validateMarks(in *InitialResult, maxMarks int) error {
	ceiling := decimal.NewFromInt(int64(maxMarks))

	if in.OverallMark.IsNegative() || in.OverallMark.GreaterThan(ceiling) {
		return fmt.Errorf("%w: overall_mark=%s must be within [0, %d]", ErrInvalidMarks, in.OverallMark, maxMarks)
	}
	if !fitsMarkColumn(in.OverallMark) {
		return fmt.Errorf("%w: overall_mark=%s has more than %d decimal places", ErrInvalidMarks, in.OverallMark, markPlaces)
	}
	if in.SessionalExam != nil {
		if in.SessionalExam.IsNegative() || in.SessionalExam.GreaterThan(s.sessionalCap) {
			return fmt.Errorf("%w: sessional_exam=%s must be within [0, %s]", ErrInvalidMarks, in.SessionalExam, s.sessionalCap)
		}
		if !fitsMarkColumn(*in.SessionalExam) {
			return fmt.Errorf("%w: sessional_exam=%s has more than %d decimal places", ErrInvalidMarks, in.SessionalExam, markPlaces)
		}
	}
	if in.EndTerm != nil {
		if in.EndTerm.IsNegative() || in.EndTerm.GreaterThan(ceiling) {
			return fmt.Errorf("%w: end_term=%s must be within [0, %d]", ErrInvalidMarks, in.EndTerm, maxMarks)
		}
		if !fitsMarkColumn(*in.EndTerm) {
			return fmt.Errorf("%w: end_term=%s has more than %d decimal places", ErrInvalidMarks, in.EndTerm, markPlaces)
		}
	}
	return nil
}

// markPlaces is the scale of every mark column (numeric(7,2)).
const markPlaces = 2

// fitsMarkColumn reports whether m is stored without rounding. A mark the
// column would round could be graded differently once read back.
func fitsMarkColumn(m decimal.Decimal) bool {
	return m.Equal(m.Round(markPlaces))
}

// ────────────────────── Get ──────────────────────

func (s *resultLedgerService) Get(ctx context.Context, studentID, subjectID string) (*dto.ResultResponse, error) {
	result, err := s.repo.Result.GetByKey(ctx, studentID, subjectID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: student_id=%s subject_id=%s", ErrResultNotFound, studentID, subjectID)
		}
		s.logger.Error("load result", zap.String("student_id", studentID), zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}
	resp := toResultResponse(result)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *resultLedgerService) List(ctx context.Context, req *dto.ResultListRequest, callerRole, callerTeacherID string) ([]dto.ResultResponse, int64, error) {
	filter := repository.ResultFilter{
		StudentID:  req.StudentID,
		SubjectID:  req.SubjectID,
		SemesterID: req.SemesterID,
		Grade:      req.Grade,
	}
	// teachers only see what they graded
	if callerRole == jwt.RoleTeacher {
		filter.TeacherID = callerTeacherID
	}

	results, total, err := s.repo.Result.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list results", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.ResultResponse, 0, len(results))
	for i := range results {
		list = append(list, toResultResponse(&results[i]))
	}
	return list, total, nil
}

// ── helpers ──

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func toResultResponse(r *model.Result) dto.ResultResponse {
	resp := dto.ResultResponse{
		ID:            r.ResultID,
		StudentID:     r.StudentID,
		SubjectID:     r.SubjectID,
		SessionalExam: decimalPtr(r.SessionalExam),
		EndTerm:       decimalPtr(r.EndTerm),
		OverallMark:   r.OverallMark,
		Grade:         r.Grade,
		TeacherID:     r.TeacherID,
		Version:       r.Version,
		UpdatedAt:     r.UpdatedAt.Format(timeLayout),
	}
	if r.Student != nil {
		resp.RollNo = r.Student.RollNo
	}
	if r.Subject != nil {
		resp.SubjectCode = r.Subject.Code
		resp.MaxMarks = r.Subject.MaxMarks
	}
	return resp
}
