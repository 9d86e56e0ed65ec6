package dto

import "github.com/shopspring/decimal"

// ── result DTOs ──

// ResultResponse result row
type ResultResponse struct {
	ID            string           `json:"id"`
	StudentID     string           `json:"student_id"`
	RollNo        string           `json:"roll_no,omitempty"`
	SubjectID     string           `json:"subject_id"`
	SubjectCode   string           `json:"subject_code,omitempty"`
	MaxMarks      int              `json:"max_marks,omitempty"`
	SessionalExam *decimal.Decimal `json:"sessional_exam"`
	EndTerm       *decimal.Decimal `json:"end_term"`
	OverallMark   decimal.Decimal  `json:"overall_mark"`
	Grade         string           `json:"grade"`
	TeacherID     string           `json:"teacher_id"`
	Version       int              `json:"version"`
	UpdatedAt     string           `json:"updated_at"`
}

// ResultListRequest list filters
type ResultListRequest struct {
	PaginationRequest
	StudentID  string `form:"student_id"  binding:"omitempty,uuid"`
	SubjectID  string `form:"subject_id"  binding:"omitempty,uuid"`
	SemesterID string `form:"semester_id" binding:"omitempty,uuid"`
	Grade      string `form:"grade"       binding:"omitempty,max=16"`
}

// ImportRowOutcome the fate of one imported row
type ImportRowOutcome struct {
	Row         int    `json:"row"`
	RollNo      string `json:"roll_no"`
	SubjectCode string `json:"subject_code"`
	Success     bool   `json:"success"`
	ResultID    string `json:"result_id,omitempty"`
	Grade       string `json:"grade,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// ImportResultResponse per-row report of a result import batch
type ImportResultResponse struct {
	BatchID   string             `json:"batch_id"`
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Outcomes  []ImportRowOutcome `json:"outcomes"`
}

// ImportProgressResponse last reported progress of a batch
type ImportProgressResponse struct {
	BatchID    string  `json:"batch_id"`
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ImportResultRequest multipart form fields accompanying a result file
type ImportResultRequest struct {
	BatchID string `form:"batch_id" binding:"omitempty,uuid"`
}
