package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestExportService_ExportFailedSubjects(t *testing.T) {
	e := setupSQLiteEngine(t, nil)
	ctx := context.Background()
	sub := e.fx.AddSubject(t, e.db, "CS101", 100)
	passed := e.fx.AddSubject(t, e.db, "CS102", 100)
	e.record(t, e.fx.Student.StudentID, sub.SubjectID, "22")
	e.record(t, e.fx.Student.StudentID, passed.SubjectID, "64")

	svc := NewExportService(e.repo, zap.NewNop())
	buf, filename, err := svc.ExportFailedSubjects(ctx, e.fx.Semester.SemesterID)
	require.NoError(t, err)
	assert.Equal(t, "failed_subjects_Semester 1.xlsx", filename)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Failed Subjects")
	require.NoError(t, err)
	require.Len(t, rows, 3, "title, header and one ledger row")
	assert.Equal(t, "Semester 1 - Failed Subjects", rows[0][0])
	assert.Equal(t, []string{"Roll No", "Student", "Subject Code", "Subject", "Max Marks", "Failed Since"}, rows[1])
	assert.Equal(t, "CS-001", rows[2][0])
	assert.Equal(t, "Asha Rao", rows[2][1])
	assert.Equal(t, "CS101", rows[2][2])
	assert.Equal(t, "100", rows[2][4])
}

func TestExportService_UnknownSemester(t *testing.T) {
	repo, _ := newTestRepos()
	svc := NewExportService(repo, zap.NewNop())

	_, _, err := svc.ExportFailedSubjects(context.Background(), "sem-404")
	if !errors.Is(err, ErrUnknownSemester) {
		t.Errorf("expected ErrUnknownSemester, got %v", err)
	}
}
