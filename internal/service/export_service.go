package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"istc-sms/backend/internal/repository"
)

// ErrExportGenerateFail the workbook could not be written
var ErrExportGenerateFail = errors.New("failed to generate Excel file")

// ExportService spreadsheet exports
//
// Exports are returned as a bytes.Buffer; the handler sets the download
// headers and writes it to the response.
type ExportService interface {
	// ExportFailedSubjects writes the semester's failed-subjects ledger as
	// an .xlsx workbook. Returns the suggested file name.
	ExportFailedSubjects(ctx context.Context, semesterID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportFailedSubjects
// ═══════════════════════════════════════════════════════════
//
// Layout:
//   - row 1: title, merged across all columns
//   - row 2: Roll No | Student | Subject Code | Subject | Max Marks | Failed Since
//   - one row per ledger entry, ordered by student then subject

func (s *exportService) ExportFailedSubjects(ctx context.Context, semesterID string) (*bytes.Buffer, string, error) {
	semester, err := s.repo.Semester.GetByID(ctx, semesterID)
	if err != nil {
		if isNotFound(err) {
			return nil, "", fmt.Errorf("%w: semester_id=%s", ErrUnknownSemester, semesterID)
		}
		s.logger.Error("load semester", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, "", err
	}

	entries, err := s.repo.FailedSubject.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("list failed subjects", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Failed Subjects"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Roll No", "Student", "Subject Code", "Subject", "Max Marks", "Failed Since"}
	widths := []float64{14, 24, 14, 30, 11, 20}
	for i, w := range widths {
		f.SetColWidth(sheetName, colName(i), colName(i), w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s - Failed Subjects", semester.Name))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), headerStyle)

	for _, e := range entries {
		row++
		if e.Student != nil {
			f.SetCellValue(sheetName, cell("A", row), e.Student.RollNo)
			f.SetCellValue(sheetName, cell("B", row), e.Student.Name)
		} else {
			f.SetCellValue(sheetName, cell("A", row), e.StudentID)
		}
		if e.Subject != nil {
			f.SetCellValue(sheetName, cell("C", row), e.Subject.Code)
			f.SetCellValue(sheetName, cell("D", row), e.Subject.Name)
			f.SetCellValue(sheetName, cell("E", row), e.Subject.MaxMarks)
		} else {
			f.SetCellValue(sheetName, cell("C", row), e.SubjectID)
		}
		f.SetCellValue(sheetName, cell("F", row), e.CreatedAt.Format("2006-01-02 15:04"))
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write workbook", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("failed_subjects_%s.xlsx", semester.Name)
	return buf, filename, nil
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
