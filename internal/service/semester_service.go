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

// SemesterService semester catalogue
type SemesterService interface {
	Create(ctx context.Context, req *dto.CreateSemesterRequest, callerID string) (*dto.SemesterResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SemesterResponse, error)
	List(ctx context.Context) ([]dto.SemesterResponse, error)
	// DMCEligible lists the semester's students that have at least one
	// result in it and no failing result.
	DMCEligible(ctx context.Context, semesterID string) ([]dto.DMCEligibleStudent, error)
}

type semesterService struct {
	repo   *repository.Repository
	scale  *grading.Scale
	logger *zap.Logger
}

// NewSemesterService creates a SemesterService
func NewSemesterService(repo *repository.Repository, scale *grading.Scale, logger *zap.Logger) SemesterService {
	return &semesterService{repo: repo, scale: scale, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *semesterService) Create(ctx context.Context, req *dto.CreateSemesterRequest, callerID string) (*dto.SemesterResponse, error) {
	semester := &model.Semester{
		Name:  req.Name,
		Level: req.Level,
	}
	semester.CreatedBy = &callerID
	semester.UpdatedBy = &callerID

	if err := s.repo.Semester.Create(ctx, semester); err != nil {
		s.logger.Error("create semester", zap.Error(err))
		return nil, err
	}
	return toSemesterResponse(semester), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *semesterService) GetByID(ctx context.Context, id string) (*dto.SemesterResponse, error) {
	semester, err := s.repo.Semester.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: semester_id=%s", ErrUnknownSemester, id)
		}
		s.logger.Error("load semester", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toSemesterResponse(semester), nil
}

// ────────────────────── List ──────────────────────

func (s *semesterService) List(ctx context.Context) ([]dto.SemesterResponse, error) {
	semesters, err := s.repo.Semester.List(ctx)
	if err != nil {
		s.logger.Error("list semesters", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SemesterResponse, 0, len(semesters))
	for i := range semesters {
		result = append(result, *toSemesterResponse(&semesters[i]))
	}
	return result, nil
}

// ────────────────────── DMCEligible ──────────────────────

func (s *semesterService) DMCEligible(ctx context.Context, semesterID string) ([]dto.DMCEligibleStudent, error) {
	if _, err := s.GetByID(ctx, semesterID); err != nil {
		return nil, err
	}

	students, err := s.repo.Student.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("list students", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}
	results, err := s.repo.Result.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("list semester results", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}

	type tally struct {
		subjects int
		failing  bool
	}
	byStudent := make(map[string]*tally)
	for _, r := range results {
		t, ok := byStudent[r.StudentID]
		if !ok {
			t = &tally{}
			byStudent[r.StudentID] = t
		}
		t.subjects++
		if s.scale.IsFailing(grading.Grade(r.Grade)) {
			t.failing = true
		}
	}

	eligible := make([]dto.DMCEligibleStudent, 0)
	for _, st := range students {
		t, ok := byStudent[st.StudentID]
		if !ok || t.failing {
			continue
		}
		eligible = append(eligible, dto.DMCEligibleStudent{
			StudentID: st.StudentID,
			RollNo:    st.RollNo,
			Name:      st.Name,
			Subjects:  t.subjects,
		})
	}
	return eligible, nil
}

// ── helpers ──

func toSemesterResponse(s *model.Semester) *dto.SemesterResponse {
	return &dto.SemesterResponse{
		ID:        s.SemesterID,
		Name:      s.Name,
		Level:     s.Level,
		CreatedAt: s.CreatedAt.Format(timeLayout),
	}
}
