package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"istc-sms/backend/internal/dto"
	"istc-sms/backend/internal/model"
	"istc-sms/backend/internal/repository"
)

// SubjectService subject catalogue. A subject referenced by any result is
// frozen: its max marks and semester feed grades already persisted.
type SubjectService interface {
	Create(ctx context.Context, req *dto.CreateSubjectRequest, callerID string) (*dto.SubjectResponse, error)
	List(ctx context.Context, semesterID string) ([]dto.SubjectResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSubjectRequest, callerID string) (*dto.SubjectResponse, error)
}

type subjectService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSubjectService creates a SubjectService
func NewSubjectService(repo *repository.Repository, logger *zap.Logger) SubjectService {
	return &subjectService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *subjectService) Create(ctx context.Context, req *dto.CreateSubjectRequest, callerID string) (*dto.SubjectResponse, error) {
	if err := s.requireSemester(ctx, req.SemesterID); err != nil {
		return nil, err
	}
	if _, err := s.repo.Subject.GetByCode(ctx, req.Code); err == nil {
		return nil, fmt.Errorf("%w: code=%s", ErrDuplicateSubject, req.Code)
	} else if !isNotFound(err) {
		s.logger.Error("load subject by code", zap.String("code", req.Code), zap.Error(err))
		return nil, err
	}

	subject := &model.Subject{
		Code:       req.Code,
		Name:       req.Name,
		MaxMarks:   req.MaxMarks,
		SemesterID: req.SemesterID,
	}
	subject.CreatedBy = &callerID
	subject.UpdatedBy = &callerID

	if err := s.repo.Subject.Create(ctx, subject); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: code=%s", ErrDuplicateSubject, req.Code)
		}
		s.logger.Error("create subject", zap.Error(err))
		return nil, err
	}
	return toSubjectResponse(subject), nil
}

// ────────────────────── List ──────────────────────

func (s *subjectService) List(ctx context.Context, semesterID string) ([]dto.SubjectResponse, error) {
	subjects, err := s.repo.Subject.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("list subjects", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}
	resp := make([]dto.SubjectResponse, 0, len(subjects))
	for i := range subjects {
		resp = append(resp, *toSubjectResponse(&subjects[i]))
	}
	return resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *subjectService) Update(ctx context.Context, id string, req *dto.UpdateSubjectRequest, callerID string) (*dto.SubjectResponse, error) {
	subject, err := s.repo.Subject.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: subject_id=%s", ErrUnknownSubject, id)
		}
		s.logger.Error("load subject", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	referenced, err := s.repo.Subject.IsReferenced(ctx, id)
	if err != nil {
		s.logger.Error("check subject references", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if referenced {
		return nil, fmt.Errorf("%w: subject_id=%s", ErrSubjectReferenced, id)
	}

	if req.Code != nil && *req.Code != subject.Code {
		if _, err := s.repo.Subject.GetByCode(ctx, *req.Code); err == nil {
			return nil, fmt.Errorf("%w: code=%s", ErrDuplicateSubject, *req.Code)
		} else if !isNotFound(err) {
			return nil, err
		}
		subject.Code = *req.Code
	}
	if req.Name != nil {
		subject.Name = *req.Name
	}
	if req.MaxMarks != nil {
		subject.MaxMarks = *req.MaxMarks
	}
	if req.SemesterID != nil && *req.SemesterID != subject.SemesterID {
		if err := s.requireSemester(ctx, *req.SemesterID); err != nil {
			return nil, err
		}
		subject.SemesterID = *req.SemesterID
	}
	subject.UpdatedBy = &callerID

	if err := s.repo.Subject.Update(ctx, subject); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: code=%s", ErrDuplicateSubject, subject.Code)
		}
		s.logger.Error("update subject", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toSubjectResponse(subject), nil
}

// ── helpers ──

func (s *subjectService) requireSemester(ctx context.Context, semesterID string) error {
	if _, err := s.repo.Semester.GetByID(ctx, semesterID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: semester_id=%s", ErrUnknownSemester, semesterID)
		}
		s.logger.Error("load semester", zap.String("semester_id", semesterID), zap.Error(err))
		return err
	}
	return nil
}

func toSubjectResponse(s *model.Subject) *dto.SubjectResponse {
	return &dto.SubjectResponse{
		ID:         s.SubjectID,
		Code:       s.Code,
		Name:       s.Name,
		MaxMarks:   s.MaxMarks,
		SemesterID: s.SemesterID,
	}
}
