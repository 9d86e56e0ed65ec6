package model

import "gorm.io/gorm"

// Semester semesters table
type Semester struct {
	SemesterID string `gorm:"type:uuid;primaryKey"       json:"semester_id"`
	Name       string `gorm:"type:varchar(100);not null" json:"name"`
	Level      int    `gorm:"not null"                   json:"level"`
	BaseModel
}

// TableName table name
func (Semester) TableName() string { return "semesters" }

func (s *Semester) BeforeCreate(*gorm.DB) error {
	assignID(&s.SemesterID)
	return nil
}
