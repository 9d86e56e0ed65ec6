package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"istc-sms/backend/internal/dto"
	"istc-sms/backend/internal/grading"
	"istc-sms/backend/internal/model"
	"istc-sms/backend/internal/repository"
)

// Reconciliation finding kinds
const (
	// FindingLedgerOrphan entry without a failing result
	FindingLedgerOrphan = "ledger_orphan"
	// FindingLedgerMissing failing result without an entry
	FindingLedgerMissing = "ledger_missing"
	// FindingPoolInconsistent used_grace outside [0, total_grace]
	FindingPoolInconsistent = "pool_inconsistent"
	// FindingGradeDrift stored grade differs from the grade of the stored mark
	FindingGradeDrift = "grade_drift"
)

// FailedLedgerService the failed-subjects ledger. Sync is the only write path
// and is called by every operation that changes a result's grade.
type FailedLedgerService interface {
	// Sync applies a grade transition to the ledger using txRepo, the
	// transaction that writes the result. prevGrade is empty for a new result.
	Sync(ctx context.Context, txRepo *repository.Repository, result *model.Result, semesterID string, prevGrade, newGrade grading.Grade) error
	List(ctx context.Context, studentID string) ([]dto.FailedSubjectResponse, error)
	// Reconcile reports every divergence between the ledger, result grades and
	// grace pools. Findings are logged; nothing is corrected.
	Reconcile(ctx context.Context) (*dto.ReconcileResponse, error)
}

type failedLedgerService struct {
	repo   *repository.Repository
	scale  *grading.Scale
	logger *zap.Logger
}

// NewFailedLedgerService creates a FailedLedgerService
func NewFailedLedgerService(repo *repository.Repository, scale *grading.Scale, logger *zap.Logger) FailedLedgerService {
	return &failedLedgerService{repo: repo, scale: scale, logger: logger}
}

// ────────────────────── Sync ──────────────────────

func (s *failedLedgerService) Sync(
	ctx context.Context,
	txRepo *repository.Repository,
	result *model.Result,
	semesterID string,
	prevGrade, newGrade grading.Grade,
) error {
	wasFailing := prevGrade != "" && s.scale.IsFailing(prevGrade)
	isFailing := s.scale.IsFailing(newGrade)

	switch {
	case !wasFailing && isFailing:
		return txRepo.FailedSubject.Insert(ctx, &model.FailedSubject{
			StudentID:  result.StudentID,
			SubjectID:  result.SubjectID,
			SemesterID: semesterID,
		})
	case wasFailing && !isFailing:
		return txRepo.FailedSubject.Delete(ctx, result.StudentID, result.SubjectID)
	}
	return nil
}

// ────────────────────── List ──────────────────────

func (s *failedLedgerService) List(ctx context.Context, studentID string) ([]dto.FailedSubjectResponse, error) {
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		return nil, s.mapStudentErr(err, studentID)
	}

	entries, err := s.repo.FailedSubject.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("list failed subjects", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	resp := make([]dto.FailedSubjectResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, toFailedSubjectResponse(&entries[i]))
	}
	return resp, nil
}

// ────────────────────── Reconcile ──────────────────────

func (s *failedLedgerService) Reconcile(ctx context.Context) (*dto.ReconcileResponse, error) {
	entries, err := s.repo.FailedSubject.ListAll(ctx)
	if err != nil {
		s.logger.Error("reconcile: load ledger", zap.Error(err))
		return nil, err
	}
	results, err := s.repo.Result.ListAllWithSubject(ctx)
	if err != nil {
		s.logger.Error("reconcile: load results", zap.Error(err))
		return nil, err
	}
	pools, err := s.repo.GracePool.ListInconsistent(ctx)
	if err != nil {
		s.logger.Error("reconcile: load grace pools", zap.Error(err))
		return nil, err
	}

	type key struct{ student, subject string }
	inLedger := make(map[key]bool, len(entries))
	for _, e := range entries {
		inLedger[key{e.StudentID, e.SubjectID}] = true
	}
	var failing []model.Result
	isFailing := make(map[key]bool)
	for _, r := range results {
		if s.scale.IsFailing(grading.Grade(r.Grade)) {
			failing = append(failing, r)
			isFailing[key{r.StudentID, r.SubjectID}] = true
		}
	}

	findings := make([]dto.ReconcileFinding, 0)
	for _, e := range entries {
		if isFailing[key{e.StudentID, e.SubjectID}] {
			continue
		}
		f := dto.ReconcileFinding{
			Kind:      FindingLedgerOrphan,
			StudentID: e.StudentID,
			SubjectID: e.SubjectID,
			Detail:    "ledger entry has no result graded " + string(s.scale.FailGrade()),
		}
		s.logger.Error("consistency finding",
			zap.String("kind", f.Kind),
			zap.String("student_id", e.StudentID),
			zap.String("subject_id", e.SubjectID),
			zap.Error(ErrLedgerDrift))
		findings = append(findings, f)
	}
	for _, r := range failing {
		if inLedger[key{r.StudentID, r.SubjectID}] {
			continue
		}
		f := dto.ReconcileFinding{
			Kind:      FindingLedgerMissing,
			StudentID: r.StudentID,
			SubjectID: r.SubjectID,
			Detail:    fmt.Sprintf("result %s is graded %s but has no ledger entry", r.ResultID, r.Grade),
		}
		s.logger.Error("consistency finding",
			zap.String("kind", f.Kind),
			zap.String("student_id", r.StudentID),
			zap.String("subject_id", r.SubjectID),
			zap.String("result_id", r.ResultID),
			zap.Error(ErrLedgerDrift))
		findings = append(findings, f)
	}
	for _, r := range results {
		if r.Subject == nil {
			continue
		}
		expected := s.scale.ClassifyMarks(r.OverallMark, r.Subject.MaxMarks)
		if string(expected) == r.Grade {
			continue
		}
		f := dto.ReconcileFinding{
			Kind:      FindingGradeDrift,
			StudentID: r.StudentID,
			SubjectID: r.SubjectID,
			Detail:    fmt.Sprintf("result %s is graded %s but overall_mark %s of %d grades %s", r.ResultID, r.Grade, r.OverallMark, r.Subject.MaxMarks, expected),
		}
		s.logger.Error("consistency finding",
			zap.String("kind", f.Kind),
			zap.String("student_id", r.StudentID),
			zap.String("subject_id", r.SubjectID),
			zap.String("result_id", r.ResultID),
			zap.String("grade", r.Grade),
			zap.String("expected_grade", string(expected)),
			zap.Error(ErrGradeDrift))
		findings = append(findings, f)
	}
	for _, p := range pools {
		f := dto.ReconcileFinding{
			Kind:      FindingPoolInconsistent,
			StudentID: p.StudentID,
			PoolID:    p.GracePoolID,
			Detail:    fmt.Sprintf("used_grace=%d total_grace=%d", p.UsedGrace, p.TotalGrace),
		}
		s.logger.Error("consistency finding",
			zap.String("kind", f.Kind),
			zap.String("student_id", p.StudentID),
			zap.String("semester_id", p.SemesterID),
			zap.String("grace_pool_id", p.GracePoolID),
			zap.Int("used_grace", p.UsedGrace),
			zap.Int("total_grace", p.TotalGrace),
			zap.Error(ErrPoolInconsistent))
		findings = append(findings, f)
	}

	return &dto.ReconcileResponse{Consistent: len(findings) == 0, Findings: findings}, nil
}

// ── helpers ──

func (s *failedLedgerService) mapStudentErr(err error, studentID string) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: student_id=%s", ErrUnknownStudent, studentID)
	}
	s.logger.Error("load student", zap.String("student_id", studentID), zap.Error(err))
	return err
}

func toFailedSubjectResponse(e *model.FailedSubject) dto.FailedSubjectResponse {
	resp := dto.FailedSubjectResponse{
		StudentID:  e.StudentID,
		SubjectID:  e.SubjectID,
		SemesterID: e.SemesterID,
		CreatedAt:  e.CreatedAt.Format(timeLayout),
	}
	if e.Subject != nil {
		resp.SubjectCode = e.Subject.Code
	}
	return resp
}
