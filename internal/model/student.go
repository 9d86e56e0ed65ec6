package model

import "gorm.io/gorm"

// Student students table
type Student struct {
	StudentID  string `gorm:"type:uuid;primaryKey"                  json:"student_id"`
	RollNo     string `gorm:"type:varchar(32);not null;uniqueIndex" json:"roll_no"`
	Name       string `gorm:"type:varchar(100);not null"            json:"name"`
	SemesterID string `gorm:"type:uuid;not null;index"              json:"semester_id"`
	BranchID   string `gorm:"type:varchar(32);not null"             json:"branch_id"`
	BaseModel
}

// TableName table name
func (Student) TableName() string { return "students" }

func (s *Student) BeforeCreate(*gorm.DB) error {
	assignID(&s.StudentID)
	return nil
}
