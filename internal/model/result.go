package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Result results table, one row per (student, subject).
// OverallMark and Grade are always written together.
type Result struct {
	ResultID      string              `gorm:"type:uuid;primaryKey"                                              json:"result_id"`
	StudentID     string              `gorm:"type:uuid;not null;uniqueIndex:uq_results_student_subject,priority:1" json:"student_id"`
	SubjectID     string              `gorm:"type:uuid;not null;uniqueIndex:uq_results_student_subject,priority:2" json:"subject_id"`
	SessionalExam decimal.NullDecimal `gorm:"type:numeric(7,2)"                                                 json:"sessional_exam"`
	EndTerm       decimal.NullDecimal `gorm:"type:numeric(7,2)"                                                 json:"end_term"`
	OverallMark   decimal.Decimal     `gorm:"type:numeric(7,2);not null"                                        json:"overall_mark"`
	Grade         string              `gorm:"type:varchar(16);not null"                                         json:"grade"`
	TeacherID     string              `gorm:"type:varchar(64);not null"                                         json:"teacher_id"`
	VersionedModel

	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Subject *Subject `gorm:"foreignKey:SubjectID;references:SubjectID" json:"subject,omitempty"`
}

// TableName table name
func (Result) TableName() string { return "results" }

func (r *Result) BeforeCreate(*gorm.DB) error {
	assignID(&r.ResultID)
	if r.Version == 0 {
		r.Version = 1
	}
	return nil
}
