package repository

import (
	"context"

	"gorm.io/gorm"

	"istc-sms/backend/internal/model"
)

// GraceApplicationRepository append-only grace audit
type GraceApplicationRepository interface {
	Create(ctx context.Context, app *model.GraceApplication) error
	ListByStudent(ctx context.Context, studentID string) ([]model.GraceApplication, error)
}

type graceApplicationRepo struct {
	db *gorm.DB
}

// NewGraceApplicationRepo creates a GraceApplicationRepository
func NewGraceApplicationRepo(db *gorm.DB) GraceApplicationRepository {
	return &graceApplicationRepo{db: db}
}

func (r *graceApplicationRepo) Create(ctx context.Context, app *model.GraceApplication) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *graceApplicationRepo) ListByStudent(ctx context.Context, studentID string) ([]model.GraceApplication, error) {
	var apps []model.GraceApplication
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at ASC, grace_application_id ASC").
		Find(&apps).Error
	return apps, err
}
