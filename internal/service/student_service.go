package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"istc-sms/backend/internal/dto"
	"istc-sms/backend/internal/model"
	"istc-sms/backend/internal/repository"
)

// OnboardingRow one row of a student onboarding spreadsheet
type OnboardingRow struct {
	Row    int    `validate:"-"`
	Name   string `validate:"required,max=100"`
	RollNo string `validate:"required,max=32"`
}

// StudentService student onboarding. Each onboarded student gets the
// semester's grace pool; re-running an onboarding never resets a pool.
type StudentService interface {
	ParseOnboardingFile(reader io.Reader) ([]OnboardingRow, error)
	Onboard(ctx context.Context, req *dto.ImportStudentRequest, rows []OnboardingRow, callerID string) (*dto.ImportStudentResponse, error)
}

type studentService struct {
	repo     *repository.Repository
	pools    GracePoolService
	validate *validator.Validate
	maxRows  int
	logger   *zap.Logger
}

// NewStudentService creates a StudentService
func NewStudentService(repo *repository.Repository, pools GracePoolService, maxRows int, logger *zap.Logger) StudentService {
	if maxRows <= 0 {
		maxRows = defaultMaxImportRows
	}
	return &studentService{
		repo:     repo,
		pools:    pools,
		validate: validator.New(),
		maxRows:  maxRows,
		logger:   logger,
	}
}

var onboardingColumns = map[string][]string{
	"name":    {"name", "student name"},
	"roll_no": {"roll no", "roll_no", "rollno", "roll number"},
}

// ────────────────────── ParseOnboardingFile ──────────────────────

func (s *studentService) ParseOnboardingFile(reader io.Reader) ([]OnboardingRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read spreadsheet: %v", ErrImportBadHeader, err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read first sheet: %v", ErrImportBadHeader, err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	colIndex := parseHeaderIndex(excelRows[0], onboardingColumns)
	if colIndex["name"] < 0 || colIndex["roll_no"] < 0 {
		return nil, fmt.Errorf("%w: name, roll_no", ErrImportBadHeader)
	}

	var rows []OnboardingRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := OnboardingRow{Row: i + 1}
		if idx := colIndex["name"]; idx < len(row) {
			item.Name = strings.TrimSpace(row[idx])
		}
		if idx := colIndex["roll_no"]; idx < len(row) {
			item.RollNo = strings.TrimSpace(row[idx])
		}
		if item.Name == "" && item.RollNo == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > s.maxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrImportTooManyRows, len(rows), s.maxRows)
	}
	return rows, nil
}

// ────────────────────── Onboard ──────────────────────

func (s *studentService) Onboard(ctx context.Context, req *dto.ImportStudentRequest, rows []OnboardingRow, callerID string) (*dto.ImportStudentResponse, error) {
	// fails the whole batch for an unknown semester or one without subjects
	allowance, err := s.pools.Allowance(ctx, req.SemesterID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ImportStudentResponse{Total: len(rows), GraceAllowance: allowance}
	rowErr := func(row int, err error) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportRowError{Row: row, Reason: err.Error()})
	}

	for _, row := range rows {
		if err := s.validate.Struct(row); err != nil {
			rowErr(row.Row, missingFieldError(err))
			continue
		}

		student, err := s.ensureStudent(ctx, req, row, callerID)
		if err != nil {
			rowErr(row.Row, err)
			continue
		}

		if _, err := s.pools.Initialize(ctx, student.StudentID, req.SemesterID); err != nil {
			if !errors.Is(err, ErrGracePoolExists) {
				rowErr(row.Row, err)
				continue
			}
			resp.PoolsExisting++
		} else {
			resp.PoolsCreated++
		}
		resp.Success++
	}

	s.logger.Info("student onboarding finished",
		zap.String("semester_id", req.SemesterID),
		zap.String("branch_id", req.BranchID),
		zap.Int("total", resp.Total),
		zap.Int("success", resp.Success),
		zap.Int("failed", resp.Failed),
		zap.Int("pools_created", resp.PoolsCreated))
	return resp, nil
}

// ensureStudent creates the student, or returns the existing one when the
// roll number is already enrolled in the same semester.
func (s *studentService) ensureStudent(ctx context.Context, req *dto.ImportStudentRequest, row OnboardingRow, callerID string) (*model.Student, error) {
	existing, err := s.repo.Student.GetByRollNo(ctx, row.RollNo)
	if err == nil {
		if existing.SemesterID != req.SemesterID {
			return nil, fmt.Errorf("%w: roll_no=%s is enrolled in another semester", ErrDuplicateStudent, row.RollNo)
		}
		return existing, nil
	}
	if !isNotFound(err) {
		s.logger.Error("load student", zap.String("roll_no", row.RollNo), zap.Error(err))
		return nil, err
	}

	student := &model.Student{
		RollNo:     row.RollNo,
		Name:       row.Name,
		SemesterID: req.SemesterID,
		BranchID:   req.BranchID,
	}
	student.CreatedBy = &callerID
	student.UpdatedBy = &callerID
	if err := s.repo.Student.Create(ctx, student); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: roll_no=%s", ErrDuplicateStudent, row.RollNo)
		}
		s.logger.Error("create student", zap.String("roll_no", row.RollNo), zap.Error(err))
		return nil, err
	}
	return student, nil
}
