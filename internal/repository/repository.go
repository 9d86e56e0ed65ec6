package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every repository
type Repository struct {
	db *gorm.DB

	Semester         SemesterRepository
	Subject          SubjectRepository
	Student          StudentRepository
	Result           ResultRepository
	GracePool        GracePoolRepository
	FailedSubject    FailedSubjectRepository
	GraceApplication GraceApplicationRepository
}

// NewRepository creates the aggregate
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:               db,
		Semester:         NewSemesterRepo(db),
		Subject:          NewSubjectRepo(db),
		Student:          NewStudentRepo(db),
		Result:           NewResultRepo(db),
		GracePool:        NewGracePoolRepo(db),
		FailedSubject:    NewFailedSubjectRepo(db),
		GraceApplication: NewGraceApplicationRepo(db),
	}
}

// BeginTx starts a transaction. Returns a nil tx when the aggregate has no
// database (mock repositories in service tests).
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx returns an aggregate bound to tx
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction runs fn with a transaction-bound aggregate. fn returning an
// error (or panicking) rolls everything back.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
