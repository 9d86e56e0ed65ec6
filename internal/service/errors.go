package service

import (
	"errors"

	"istc-sms/backend/internal/grading"
	pkgerrors "istc-sms/backend/pkg/errors"
)

// ── not found ──

var (
	ErrUnknownStudent  = pkgerrors.New(pkgerrors.KindNotFound, "student not found")
	ErrUnknownSubject  = pkgerrors.New(pkgerrors.KindNotFound, "subject not found")
	ErrUnknownSemester = pkgerrors.New(pkgerrors.KindNotFound, "semester not found")
	ErrResultNotFound  = pkgerrors.New(pkgerrors.KindNotFound, "result not found")
	ErrNoGracePool     = pkgerrors.New(pkgerrors.KindNotFound, "no grace pool for student in semester")
	ErrImportNotFound  = pkgerrors.New(pkgerrors.KindNotFound, "no progress recorded for import batch")
)

// ── policy ──

var (
	ErrInsufficientGraceMarks = pkgerrors.New(pkgerrors.KindPolicy, "insufficient grace marks")
	ErrDuplicateResult        = pkgerrors.New(pkgerrors.KindPolicy, "result already exists")
	ErrGracePoolExists        = pkgerrors.New(pkgerrors.KindPolicy, "grace pool already initialised")
	ErrSubjectReferenced      = pkgerrors.New(pkgerrors.KindPolicy, "subject is referenced by results and cannot change")
	ErrDuplicateStudent       = pkgerrors.New(pkgerrors.KindPolicy, "roll number already exists")
	ErrDuplicateSubject       = pkgerrors.New(pkgerrors.KindPolicy, "subject code already exists")
)

// ── validation ──

var (
	ErrInvalidGrace    = pkgerrors.New(pkgerrors.KindValidation, "invalid grace marks")
	ErrInvalidMarks    = pkgerrors.New(pkgerrors.KindValidation, "marks out of range")
	ErrInvalidSemester = grading.ErrInvalidSemester
	ErrMissingField    = pkgerrors.New(pkgerrors.KindValidation, "required field missing")

	ErrImportNoData      = pkgerrors.New(pkgerrors.KindValidation, "spreadsheet has no data rows (first row is the header)")
	ErrImportTooManyRows = pkgerrors.New(pkgerrors.KindValidation, "spreadsheet exceeds the row limit")
	ErrImportBadHeader   = pkgerrors.New(pkgerrors.KindValidation, "spreadsheet header is missing a required column")
)

// ── consistency ──

var (
	ErrPoolInconsistent = pkgerrors.New(pkgerrors.KindConsistency, "grace pool counters violate 0 <= used <= total")
	ErrLedgerDrift      = pkgerrors.New(pkgerrors.KindConsistency, "failed-subjects ledger disagrees with result grades")
	ErrGradeDrift       = pkgerrors.New(pkgerrors.KindConsistency, "result grade disagrees with its overall mark")
)

// ── conflict ──

var ErrConcurrentUpdate = pkgerrors.New(pkgerrors.KindConflict, "result was modified concurrently, reload and retry")

// ErrBatchInUse another import already reports progress under the batch id.
var ErrBatchInUse = pkgerrors.New(pkgerrors.KindConflict, "import batch id is already in use")

// ErrProgressUnavailable progress tracking has no backing store (Redis disabled)
var ErrProgressUnavailable = errors.New("import progress tracking is not enabled")
