package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"istc-sms/backend/internal/dto"
	"istc-sms/backend/internal/repository"
	pkgerrors "istc-sms/backend/pkg/errors"
	"istc-sms/backend/pkg/redis"
)

// defaultMaxImportRows caps a single spreadsheet when none is configured
const defaultMaxImportRows = 5000

// RawResultRow one row of a result spreadsheet
type RawResultRow struct {
	Row           int              `validate:"-"`
	RollNo        string           `validate:"required,max=32"`
	SubjectCode   string           `validate:"required,max=32"`
	SessionalExam *decimal.Decimal `validate:"omitempty"`
	EndTerm       *decimal.Decimal `validate:"omitempty"`
	OverallMark   *decimal.Decimal `validate:"required"`
	// ParseError is set when a mark cell is present but not a number.
	ParseError string `validate:"-"`
}

// ResultImportService bulk result import. Rows are processed independently:
// a failing row is reported and never aborts the batch. Grace pools are
// never created here.
type ResultImportService interface {
	ParseImportFile(reader io.Reader) ([]RawResultRow, error)
	// Import records rows under batchID (generated when empty) so progress
	// can be polled while the batch runs.
	Import(ctx context.Context, batchID string, rows []RawResultRow, teacherID string, sink ProgressSink) (*dto.ImportResultResponse, error)
	// ProgressSink returns the sink backed by the configured progress store.
	ProgressSink() ProgressSink
	Progress(ctx context.Context, batchID string) (*dto.ImportProgressResponse, error)
}

type resultImportService struct {
	repo     *repository.Repository
	results  ResultLedgerService
	store    ProgressStore
	validate *validator.Validate
	maxRows  int
	logger   *zap.Logger
}

// NewResultImportService creates a ResultImportService. store may be nil.
func NewResultImportService(
	repo *repository.Repository,
	results ResultLedgerService,
	store ProgressStore,
	maxRows int,
	logger *zap.Logger,
) ResultImportService {
	if maxRows <= 0 {
		maxRows = defaultMaxImportRows
	}
	return &resultImportService{
		repo:     repo,
		results:  results,
		store:    store,
		validate: validator.New(),
		maxRows:  maxRows,
		logger:   logger,
	}
}

// ────────────────────── ParseImportFile ──────────────────────

func (s *resultImportService) ParseImportFile(reader io.Reader) ([]RawResultRow, error) {
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

	colIndex := parseHeaderIndex(excelRows[0], resultColumns)
	for _, required := range []string{"roll_no", "subject_code", "overall_mark"} {
		if colIndex[required] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrImportBadHeader, required)
		}
	}

	var rows []RawResultRow
	for i := 1; i < len(excelRows); i++ {
		raw := excelRows[i]
		cellAt := func(key string) string {
			if idx := colIndex[key]; idx >= 0 && idx < len(raw) {
				return strings.TrimSpace(raw[idx])
			}
			return ""
		}

		item := RawResultRow{
			Row:         i + 1,
			RollNo:      cellAt("roll_no"),
			SubjectCode: cellAt("subject_code"),
		}
		var bad []string
		for _, m := range []struct {
			key string
			dst **decimal.Decimal
		}{
			{"sessional_exam", &item.SessionalExam},
			{"end_term", &item.EndTerm},
			{"overall_mark", &item.OverallMark},
		} {
			v := cellAt(m.key)
			if v == "" {
				continue
			}
			d, err := decimal.NewFromString(v)
			if err != nil {
				bad = append(bad, fmt.Sprintf("%s=%q", m.key, v))
				continue
			}
			*m.dst = &d
		}
		if len(bad) > 0 {
			item.ParseError = "not a number: " + strings.Join(bad, ", ")
		}

		// skip blank lines
		if item.RollNo == "" && item.SubjectCode == "" && item.OverallMark == nil && item.ParseError == "" {
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

var resultColumns = map[string][]string{
	"roll_no":        {"roll no", "roll_no", "rollno", "roll number"},
	"subject_code":   {"subject code", "subject_code", "subjectcode", "code"},
	"sessional_exam": {"sessional exam", "sessional_exam", "sessional"},
	"end_term":       {"end term", "end_term", "endterm"},
	"overall_mark":   {"overall mark", "overall_mark", "overall marks", "overall"},
}

// parseHeaderIndex maps column keys to their index in header (-1 if absent).
// Matching is case-insensitive and ignores column order.
func parseHeaderIndex(header []string, columns map[string][]string) map[string]int {
	idx := make(map[string]int, len(columns))
	for key := range columns {
		idx[key] = -1
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		for key, aliases := range columns {
			for _, a := range aliases {
				if lower == a && idx[key] < 0 {
					idx[key] = i
				}
			}
		}
	}
	return idx
}

// ────────────────────── Import ──────────────────────

func (s *resultImportService) Import(ctx context.Context, batchID string, rows []RawResultRow, teacherID string, sink ProgressSink) (*dto.ImportResultResponse, error) {
	if sink == nil {
		sink = NopProgressSink{}
	}
	if batchID == "" {
		batchID = uuid.NewString()
	}
	if err := s.claimBatch(ctx, batchID, len(rows)); err != nil {
		return nil, err
	}
	resp := &dto.ImportResultResponse{
		BatchID:  batchID,
		Total:    len(rows),
		Outcomes: make([]dto.ImportRowOutcome, 0, len(rows)),
	}
	sink.Report(ctx, ImportProgress{BatchID: resp.BatchID, Completed: 0, Total: resp.Total})

	for i := range rows {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("result import interrupted",
				zap.String("batch_id", resp.BatchID),
				zap.Int("completed", i),
				zap.Int("total", resp.Total))
			return resp, err
		}

		outcome := s.importRow(ctx, &rows[i], teacherID)
		if outcome.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
		resp.Outcomes = append(resp.Outcomes, outcome)
		sink.Report(ctx, ImportProgress{BatchID: resp.BatchID, Completed: i + 1, Total: resp.Total})
	}

	s.logger.Info("result import finished",
		zap.String("batch_id", resp.BatchID),
		zap.String("teacher_id", teacherID),
		zap.Int("total", resp.Total),
		zap.Int("succeeded", resp.Succeeded),
		zap.Int("failed", resp.Failed))
	return resp, nil
}

// claimBatch reserves batchID in the progress store so two uploads never
// write the same counters. A store error only costs progress reporting.
func (s *resultImportService) claimBatch(ctx context.Context, batchID string, total int) error {
	if s.store == nil {
		return nil
	}
	claimed, err := s.store.ClaimProgress(ctx, ImportProgress{BatchID: batchID, Total: total})
	if err != nil {
		s.logger.Warn("claim import batch", zap.String("batch_id", batchID), zap.Error(err))
		return nil
	}
	if !claimed {
		return fmt.Errorf("%w: batch_id=%s", ErrBatchInUse, batchID)
	}
	return nil
}

func (s *resultImportService) importRow(ctx context.Context, row *RawResultRow, teacherID string) dto.ImportRowOutcome {
	outcome := dto.ImportRowOutcome{Row: row.Row, RollNo: row.RollNo, SubjectCode: row.SubjectCode}
	fail := func(err error) dto.ImportRowOutcome {
		outcome.ErrorKind = pkgerrors.KindOf(err).String()
		outcome.Reason = err.Error()
		return outcome
	}

	if row.ParseError != "" {
		return fail(fmt.Errorf("%w: %s", ErrInvalidMarks, row.ParseError))
	}
	if err := s.validate.Struct(row); err != nil {
		return fail(missingFieldError(err))
	}

	student, err := s.repo.Student.GetByRollNo(ctx, row.RollNo)
	if err != nil {
		if isNotFound(err) {
			return fail(fmt.Errorf("%w: roll_no=%s", ErrUnknownStudent, row.RollNo))
		}
		s.logger.Error("resolve roll number", zap.Int("row", row.Row), zap.String("roll_no", row.RollNo), zap.Error(err))
		return fail(err)
	}

	subject, err := s.repo.Subject.GetByCode(ctx, row.SubjectCode)
	if err != nil {
		if isNotFound(err) {
			return fail(fmt.Errorf("%w: subject_code=%s", ErrUnknownSubject, row.SubjectCode))
		}
		s.logger.Error("resolve subject code", zap.Int("row", row.Row), zap.String("subject_code", row.SubjectCode), zap.Error(err))
		return fail(err)
	}

	result, err := s.results.UpsertInitial(ctx, &InitialResult{
		StudentID:     student.StudentID,
		SubjectID:     subject.SubjectID,
		SessionalExam: row.SessionalExam,
		EndTerm:       row.EndTerm,
		OverallMark:   *row.OverallMark,
		TeacherID:     teacherID,
	})
	if err != nil {
		return fail(err)
	}

	outcome.Success = true
	outcome.ResultID = result.ResultID
	outcome.Grade = result.Grade
	return outcome
}

// missingFieldError turns validator output into ErrMissingField naming the fields.
func missingFieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrMissingField, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s(%s)", fieldName(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(fields, ", "))
}

func fieldName(goName string) string {
	switch goName {
	case "RollNo":
		return "roll_no"
	case "SubjectCode":
		return "subject_code"
	case "OverallMark":
		return "overall_mark"
	case "Name":
		return "name"
	default:
		return strings.ToLower(goName)
	}
}

// ────────────────────── Progress ──────────────────────

func (s *resultImportService) ProgressSink() ProgressSink {
	if s.store == nil {
		return NewLogProgressSink(s.logger)
	}
	return NewStoreProgressSink(s.store, s.logger)
}

func (s *resultImportService) Progress(ctx context.Context, batchID string) (*dto.ImportProgressResponse, error) {
	if s.store == nil {
		return nil, ErrProgressUnavailable
	}
	p, err := s.store.GetProgress(ctx, batchID)
	if err != nil {
		if errors.Is(err, redis.ErrProgressNotFound) {
			return nil, fmt.Errorf("%w: batch_id=%s", ErrImportNotFound, batchID)
		}
		s.logger.Error("load import progress", zap.String("batch_id", batchID), zap.Error(err))
		return nil, err
	}
	return &dto.ImportProgressResponse{
		BatchID:    p.BatchID,
		Completed:  p.Completed,
		Total:      p.Total,
		Percentage: p.Percentage(),
	}, nil
}
