package dto

// ── student DTOs ──

// ImportStudentRequest multipart form fields accompanying the onboarding file
type ImportStudentRequest struct {
	SemesterID string `form:"semester_id" binding:"required,uuid"`
	BranchID   string `form:"branch_id"   binding:"required,max=32"`
}

// ImportStudentResponse onboarding outcome
type ImportStudentResponse struct {
	Total          int              `json:"total"`
	Success        int              `json:"success"`
	Failed         int              `json:"failed"`
	PoolsCreated   int              `json:"pools_created"`
	PoolsExisting  int              `json:"pools_existing"`
	GraceAllowance int              `json:"grace_allowance"`
	Errors         []ImportRowError `json:"errors,omitempty"`
}
