package dto

// ── semester DTOs ──

// CreateSemesterRequest create semester
type CreateSemesterRequest struct {
	Name  string `json:"name"  binding:"required,min=2,max=100"`
	Level int    `json:"level" binding:"required,min=1,max=20"`
}

// SemesterResponse semester
type SemesterResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	CreatedAt string `json:"created_at"`
}

// DMCEligibleStudent a student whose every result in the semester passes
type DMCEligibleStudent struct {
	StudentID string `json:"student_id"`
	RollNo    string `json:"roll_no"`
	Name      string `json:"name"`
	Subjects  int    `json:"subjects"`
}
