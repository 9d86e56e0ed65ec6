package repository

import (
	"context"

	"gorm.io/gorm"

	"istc-sms/backend/internal/model"
)

// GracePoolRepository grace pool data access
type GracePoolRepository interface {
	Create(ctx context.Context, pool *model.GracePool) error
	GetByStudentSemester(ctx context.Context, studentID, semesterID string) (*model.GracePool, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.GracePool, error)
	// Consume atomically adds grace to used_grace if the pool can cover it.
	// Returns false, without error, when the allowance is insufficient.
	Consume(ctx context.Context, poolID string, grace int) (bool, error)
	// ListInconsistent returns pools whose persisted counters break
	// 0 <= used_grace <= total_grace.
	ListInconsistent(ctx context.Context) ([]model.GracePool, error)
}

type gracePoolRepo struct {
	db *gorm.DB
}

// NewGracePoolRepo creates a GracePoolRepository
func NewGracePoolRepo(db *gorm.DB) GracePoolRepository {
	return &gracePoolRepo{db: db}
}

func (r *gracePoolRepo) Create(ctx context.Context, pool *model.GracePool) error {
	return r.db.WithContext(ctx).Create(pool).Error
}

func (r *gracePoolRepo) GetByStudentSemester(ctx context.Context, studentID, semesterID string) (*model.GracePool, error) {
	var pool model.GracePool
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND semester_id = ?", studentID, semesterID).
		First(&pool).Error
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

func (r *gracePoolRepo) ListByStudent(ctx context.Context, studentID string) ([]model.GracePool, error) {
	var pools []model.GracePool
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&pools).Error
	return pools, err
}

func (r *gracePoolRepo) Consume(ctx context.Context, poolID string, grace int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.GracePool{}).
		Where("grace_pool_id = ? AND used_grace + ? <= total_grace", poolID, grace).
		Updates(map[string]interface{}{
			"used_grace": gorm.Expr("used_grace + ?", grace),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gracePoolRepo) ListInconsistent(ctx context.Context) ([]model.GracePool, error) {
	var pools []model.GracePool
	err := r.db.WithContext(ctx).
		Where("total_grace < 0 OR used_grace < 0 OR used_grace > total_grace").
		Find(&pools).Error
	return pools, err
}
