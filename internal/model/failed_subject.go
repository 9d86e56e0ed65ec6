package model

import "time"

// FailedSubject failed_subjects table. A row exists iff the matching result
// currently carries the fail grade; rows are only written as a side effect of
// a result grade change.
type FailedSubject struct {
	StudentID  string    `gorm:"type:uuid;primaryKey"               json:"student_id"`
	SubjectID  string    `gorm:"type:uuid;primaryKey"               json:"subject_id"`
	SemesterID string    `gorm:"type:uuid;not null;index"           json:"semester_id"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Subject *Subject `gorm:"foreignKey:SubjectID;references:SubjectID" json:"subject,omitempty"`
}

// TableName table name
func (FailedSubject) TableName() string { return "failed_subjects" }
