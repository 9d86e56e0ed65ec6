package dto

// ── subject DTOs ──

// CreateSubjectRequest create subject
type CreateSubjectRequest struct {
	Code       string `json:"code"        binding:"required,min=2,max=32"`
	Name       string `json:"name"        binding:"required,min=2,max=150"`
	MaxMarks   int    `json:"max_marks"   binding:"required,min=1,max=1000"`
	SemesterID string `json:"semester_id" binding:"required,uuid"`
}

// UpdateSubjectRequest update subject; nil fields are left unchanged
type UpdateSubjectRequest struct {
	Code       *string `json:"code"        binding:"omitempty,min=2,max=32"`
	Name       *string `json:"name"        binding:"omitempty,min=2,max=150"`
	MaxMarks   *int    `json:"max_marks"   binding:"omitempty,min=1,max=1000"`
	SemesterID *string `json:"semester_id" binding:"omitempty,uuid"`
}

// SubjectListRequest list filter
type SubjectListRequest struct {
	SemesterID string `form:"semester_id" binding:"omitempty,uuid"`
}

// SubjectResponse subject
type SubjectResponse struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	MaxMarks   int    `json:"max_marks"`
	SemesterID string `json:"semester_id"`
}
