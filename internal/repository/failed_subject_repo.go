package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"istc-sms/backend/internal/model"
)

// FailedSubjectRepository failed-subjects ledger data access. Writes go
// through the failed ledger sync only.
type FailedSubjectRepository interface {
	// Insert is idempotent: an existing entry is left untouched.
	Insert(ctx context.Context, entry *model.FailedSubject) error
	Delete(ctx context.Context, studentID, subjectID string) error
	ListByStudent(ctx context.Context, studentID string) ([]model.FailedSubject, error)
	ListBySemester(ctx context.Context, semesterID string) ([]model.FailedSubject, error)
	ListAll(ctx context.Context) ([]model.FailedSubject, error)
}

type failedSubjectRepo struct {
	db *gorm.DB
}

// NewFailedSubjectRepo creates a FailedSubjectRepository
func NewFailedSubjectRepo(db *gorm.DB) FailedSubjectRepository {
	return &failedSubjectRepo{db: db}
}

func (r *failedSubjectRepo) Insert(ctx context.Context, entry *model.FailedSubject) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
}

func (r *failedSubjectRepo) Delete(ctx context.Context, studentID, subjectID string) error {
	return r.db.WithContext(ctx).
		Where("student_id = ? AND subject_id = ?", studentID, subjectID).
		Delete(&model.FailedSubject{}).Error
}

func (r *failedSubjectRepo) ListByStudent(ctx context.Context, studentID string) ([]model.FailedSubject, error) {
	var entries []model.FailedSubject
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *failedSubjectRepo) ListBySemester(ctx context.Context, semesterID string) ([]model.FailedSubject, error) {
	var entries []model.FailedSubject
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Subject").
		Where("semester_id = ?", semesterID).
		Order("student_id ASC, subject_id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *failedSubjectRepo) ListAll(ctx context.Context) ([]model.FailedSubject, error) {
	var entries []model.FailedSubject
	err := r.db.WithContext(ctx).
		Order("student_id ASC, subject_id ASC").
		Find(&entries).Error
	return entries, err
}
