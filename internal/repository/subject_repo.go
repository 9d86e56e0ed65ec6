package repository

import (
	"context"

	"gorm.io/gorm"

	"istc-sms/backend/internal/model"
)

// SubjectRepository subject data access
type SubjectRepository interface {
	Create(ctx context.Context, subject *model.Subject) error
	GetByID(ctx context.Context, id string) (*model.Subject, error)
	GetByCode(ctx context.Context, code string) (*model.Subject, error)
	ListBySemester(ctx context.Context, semesterID string) ([]model.Subject, error)
	Update(ctx context.Context, subject *model.Subject) error
	// IsReferenced reports whether any result points at the subject.
	IsReferenced(ctx context.Context, subjectID string) (bool, error)
}

type subjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo creates a SubjectRepository
func NewSubjectRepo(db *gorm.DB) SubjectRepository {
	return &subjectRepo{db: db}
}

func (r *subjectRepo) Create(ctx context.Context, subject *model.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepo) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", id).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) GetByCode(ctx context.Context, code string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) ListBySemester(ctx context.Context, semesterID string) ([]model.Subject, error) {
	var subjects []model.Subject
	q := r.db.WithContext(ctx)
	if semesterID != "" {
		q = q.Where("semester_id = ?", semesterID)
	}
	err := q.Order("code ASC").Find(&subjects).Error
	return subjects, err
}

func (r *subjectRepo) Update(ctx context.Context, subject *model.Subject) error {
	return r.db.WithContext(ctx).
		Model(&model.Subject{}).
		Where("subject_id = ?", subject.SubjectID).
		Updates(map[string]interface{}{
			"code":        subject.Code,
			"name":        subject.Name,
			"max_marks":   subject.MaxMarks,
			"semester_id": subject.SemesterID,
			"updated_by":  subject.UpdatedBy,
			"updated_at":  gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

func (r *subjectRepo) IsReferenced(ctx context.Context, subjectID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Result{}).
		Where("subject_id = ?", subjectID).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}
