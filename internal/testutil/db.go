// Package testutil provides an in-memory database and fixtures for tests
// that need real SQL behaviour (transactions, conditional updates, unique
// indexes).
package testutil

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"istc-sms/backend/internal/model"
)

// NewSQLiteDB opens a private in-memory SQLite database with the full schema.
// A single connection serialises transactions the way row locks would.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&model.Semester{},
		&model.Subject{},
		&model.Student{},
		&model.Result{},
		&model.GracePool{},
		&model.FailedSubject{},
		&model.GraceApplication{},
	)
	require.NoError(t, err, "auto migrate")
	return db
}

// Fixture is a semester with one student enrolled.
type Fixture struct {
	Semester *model.Semester
	Student  *model.Student
}

// Seed creates a semester and a student.
func Seed(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()
	ctx := context.Background()

	sem := &model.Semester{Name: "Semester 1", Level: 1}
	require.NoError(t, db.WithContext(ctx).Create(sem).Error)

	stu := &model.Student{RollNo: "CS-001", Name: "Asha Rao", SemesterID: sem.SemesterID, BranchID: "CSE"}
	require.NoError(t, db.WithContext(ctx).Create(stu).Error)

	return &Fixture{Semester: sem, Student: stu}
}

// AddSubject creates a subject in the fixture semester.
func (f *Fixture) AddSubject(t *testing.T, db *gorm.DB, code string, maxMarks int) *model.Subject {
	t.Helper()
	sub := &model.Subject{Code: code, Name: "Subject " + code, MaxMarks: maxMarks, SemesterID: f.Semester.SemesterID}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

// AddStudent enrols another student in the fixture semester.
func (f *Fixture) AddStudent(t *testing.T, db *gorm.DB, rollNo string) *model.Student {
	t.Helper()
	stu := &model.Student{RollNo: rollNo, Name: "Student " + rollNo, SemesterID: f.Semester.SemesterID, BranchID: "CSE"}
	require.NoError(t, db.Create(stu).Error)
	return stu
}

// AddResult stores a result row as-is, without grading logic.
func AddResult(t *testing.T, db *gorm.DB, studentID, subjectID, mark, grade string) *model.Result {
	t.Helper()
	r := &model.Result{
		StudentID:   studentID,
		SubjectID:   subjectID,
		OverallMark: decimal.RequireFromString(mark),
		Grade:       grade,
		TeacherID:   "T-1",
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

// AddPool stores a grace pool row as-is.
func AddPool(t *testing.T, db *gorm.DB, studentID, semesterID string, total, used int) *model.GracePool {
	t.Helper()
	p := &model.GracePool{StudentID: studentID, SemesterID: semesterID, TotalGrace: total, UsedGrace: used}
	require.NoError(t, db.Create(p).Error)
	return p
}
