package repository

import (
	"context"

	"gorm.io/gorm"

	"istc-sms/backend/internal/model"
)

// StudentRepository student data access
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByRollNo(ctx context.Context, rollNo string) (*model.Student, error)
	ListBySemester(ctx context.Context, semesterID string) ([]model.Student, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo creates a StudentRepository
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByRollNo(ctx context.Context, rollNo string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("roll_no = ?", rollNo).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) ListBySemester(ctx context.Context, semesterID string) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		Order("roll_no ASC").
		Find(&students).Error
	return students, err
}
