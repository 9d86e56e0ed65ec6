package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GraceApplication grace_applications table: append-only audit of every
// successful grace-mark application.
type GraceApplication struct {
	GraceApplicationID string          `gorm:"type:uuid;primaryKey"               json:"grace_application_id"`
	StudentID          string          `gorm:"type:uuid;not null;index"           json:"student_id"`
	SubjectID          string          `gorm:"type:uuid;not null"                 json:"subject_id"`
	SemesterID         string          `gorm:"type:uuid;not null"                 json:"semester_id"`
	ResultID           string          `gorm:"type:uuid;not null"                 json:"result_id"`
	GraceMarks         int             `gorm:"not null"                           json:"grace_marks"`
	PreviousMark       decimal.Decimal `gorm:"type:numeric(7,2);not null"         json:"previous_mark"`
	NewMark            decimal.Decimal `gorm:"type:numeric(7,2);not null"         json:"new_mark"`
	PreviousGrade      string          `gorm:"type:varchar(16);not null"          json:"previous_grade"`
	NewGrade           string          `gorm:"type:varchar(16);not null"          json:"new_grade"`
	ApprovedBy         string          `gorm:"type:varchar(64);not null"          json:"approved_by"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName table name
func (GraceApplication) TableName() string { return "grace_applications" }

func (g *GraceApplication) BeforeCreate(*gorm.DB) error {
	assignID(&g.GraceApplicationID)
	return nil
}
