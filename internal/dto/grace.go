package dto

import "github.com/shopspring/decimal"

// ── grace DTOs ──

// ApplyGraceRequest apply grace marks to one result
type ApplyGraceRequest struct {
	StudentID  string `json:"student_id"  binding:"required,uuid"`
	SubjectID  string `json:"subject_id"  binding:"required,uuid"`
	GraceMarks *int   `json:"grace_marks" binding:"required"`
}

// GracePreviewRequest query for a dry run
type GracePreviewRequest struct {
	StudentID  string `form:"student_id"  binding:"required,uuid"`
	SubjectID  string `form:"subject_id"  binding:"required,uuid"`
	GraceMarks int    `form:"grace_marks"`
}

// AppliedGraceResponse outcome of a grace application
type AppliedGraceResponse struct {
	StudentID          string          `json:"student_id"`
	SubjectID          string          `json:"subject_id"`
	PreviousMark       decimal.Decimal `json:"previous_mark"`
	NewMark            decimal.Decimal `json:"new_mark"`
	PreviousGrade      string          `json:"previous_grade"`
	NewGrade           string          `json:"new_grade"`
	Passed             bool            `json:"passed"`
	UsedGrace          int             `json:"used_grace"`
	TotalGrace         int             `json:"total_grace"`
	RemainingAllowance int             `json:"remaining_allowance"`
}

// GracePreviewResponse what a grace application would do, without doing it
type GracePreviewResponse struct {
	StudentID      string          `json:"student_id"`
	SubjectID      string          `json:"subject_id"`
	MaxMarks       int             `json:"max_marks"`
	CurrentMark    decimal.Decimal `json:"current_mark"`
	CurrentGrade   string          `json:"current_grade"`
	PassingMarks   int             `json:"passing_marks"`
	GraceRequired  int             `json:"grace_required"`
	Available      int             `json:"available"`
	GraceMarks     int             `json:"grace_marks"`
	ProjectedMark  decimal.Decimal `json:"projected_mark"`
	ProjectedGrade string          `json:"projected_grade"`
	WouldPass      bool            `json:"would_pass"`
	CanApply       bool            `json:"can_apply"`
}

// GracePoolResponse grace pool of one student in one semester
type GracePoolResponse struct {
	ID         string `json:"id"`
	StudentID  string `json:"student_id"`
	SemesterID string `json:"semester_id"`
	TotalGrace int    `json:"total_grace"`
	UsedGrace  int    `json:"used_grace"`
	Available  int    `json:"available"`
}

// GraceApplicationResponse an audit entry
type GraceApplicationResponse struct {
	ID            string          `json:"id"`
	SubjectID     string          `json:"subject_id"`
	SemesterID    string          `json:"semester_id"`
	GraceMarks    int             `json:"grace_marks"`
	PreviousMark  decimal.Decimal `json:"previous_mark"`
	NewMark       decimal.Decimal `json:"new_mark"`
	PreviousGrade string          `json:"previous_grade"`
	NewGrade      string          `json:"new_grade"`
	ApprovedBy    string          `json:"approved_by"`
	CreatedAt     string          `json:"created_at"`
}

// FailedSubjectResponse a failed-ledger entry
type FailedSubjectResponse struct {
	StudentID   string `json:"student_id"`
	SubjectID   string `json:"subject_id"`
	SubjectCode string `json:"subject_code,omitempty"`
	SemesterID  string `json:"semester_id"`
	CreatedAt   string `json:"created_at"`
}

// ReconcileFinding a divergence detected by reconciliation
type ReconcileFinding struct {
	Kind      string `json:"kind"`
	StudentID string `json:"student_id"`
	SubjectID string `json:"subject_id,omitempty"`
	PoolID    string `json:"pool_id,omitempty"`
	Detail    string `json:"detail"`
}

// ReconcileResponse reconciliation report
type ReconcileResponse struct {
	Consistent bool               `json:"consistent"`
	Findings   []ReconcileFinding `json:"findings"`
}
