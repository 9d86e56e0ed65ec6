package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"istc-sms/backend/internal/model"
	pkgerrors "istc-sms/backend/pkg/errors"
)

// ResultFilter narrows result listings. Empty fields are ignored.
type ResultFilter struct {
	StudentID  string
	SubjectID  string
	SemesterID string
	TeacherID  string
	Grade      string
}

// ResultRepository result data access
type ResultRepository interface {
	Create(ctx context.Context, result *model.Result) error
	GetByID(ctx context.Context, id string) (*model.Result, error)
	GetByKey(ctx context.Context, studentID, subjectID string) (*model.Result, error)
	// ApplyGrace stores a new mark/grade pair guarded by the version the
	// caller read. It never derives the grade itself.
	ApplyGrace(ctx context.Context, result *model.Result, newMark decimal.Decimal, newGrade, updatedBy string) error
	List(ctx context.Context, filter ResultFilter, offset, limit int) ([]model.Result, int64, error)
	ListBySemester(ctx context.Context, semesterID string) ([]model.Result, error)
	// ListAllWithSubject loads every result with its subject, for reconciliation.
	ListAllWithSubject(ctx context.Context) ([]model.Result, error)
}

type resultRepo struct {
	db *gorm.DB
}

// NewResultRepo creates a ResultRepository
func NewResultRepo(db *gorm.DB) ResultRepository {
	return &resultRepo{db: db}
}

func (r *resultRepo) Create(ctx context.Context, result *model.Result) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *resultRepo) GetByID(ctx context.Context, id string) (*model.Result, error) {
	var result model.Result
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("result_id = ?", id).
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepo) GetByKey(ctx context.Context, studentID, subjectID string) (*model.Result, error) {
	var result model.Result
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("student_id = ? AND subject_id = ?", studentID, subjectID).
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepo) ApplyGrace(ctx context.Context, result *model.Result, newMark decimal.Decimal, newGrade, updatedBy string) error {
	oldVersion := result.Version
	res := r.db.WithContext(ctx).
		Model(&model.Result{}).
		Where("result_id = ? AND version = ?", result.ResultID, oldVersion).
		Updates(map[string]interface{}{
			"overall_mark": newMark,
			"grade":        newGrade,
			"updated_by":   updatedBy,
			"updated_at":   gorm.Expr("CURRENT_TIMESTAMP"),
			"version":      oldVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	result.OverallMark = newMark
	result.Grade = newGrade
	result.UpdatedBy = &updatedBy
	result.Version = oldVersion + 1
	return nil
}

func (r *resultRepo) List(ctx context.Context, filter ResultFilter, offset, limit int) ([]model.Result, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Result{}).
		Joins("JOIN subjects ON subjects.subject_id = results.subject_id")

	if filter.StudentID != "" {
		q = q.Where("results.student_id = ?", filter.StudentID)
	}
	if filter.SubjectID != "" {
		q = q.Where("results.subject_id = ?", filter.SubjectID)
	}
	if filter.SemesterID != "" {
		q = q.Where("subjects.semester_id = ?", filter.SemesterID)
	}
	if filter.TeacherID != "" {
		q = q.Where("results.teacher_id = ?", filter.TeacherID)
	}
	if filter.Grade != "" {
		q = q.Where("results.grade = ?", filter.Grade)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []model.Result
	err := q.Preload("Student").
		Preload("Subject").
		Order("results.created_at DESC, results.result_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error
	return results, total, err
}

func (r *resultRepo) ListBySemester(ctx context.Context, semesterID string) ([]model.Result, error) {
	var results []model.Result
	err := r.db.WithContext(ctx).
		Joins("JOIN subjects ON subjects.subject_id = results.subject_id").
		Where("subjects.semester_id = ?", semesterID).
		Order("results.student_id ASC").
		Find(&results).Error
	return results, err
}

func (r *resultRepo) ListAllWithSubject(ctx context.Context) ([]model.Result, error) {
	var results []model.Result
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Order("student_id ASC, subject_id ASC").
		Find(&results).Error
	return results, err
}
