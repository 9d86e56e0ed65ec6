package model

import "gorm.io/gorm"

// Subject subjects table. MaxMarks and SemesterID are frozen once any result
// references the subject.
type Subject struct {
	SubjectID  string `gorm:"type:uuid;primaryKey"                    json:"subject_id"`
	Code       string `gorm:"type:varchar(32);not null;uniqueIndex"   json:"code"`
	Name       string `gorm:"type:varchar(150);not null"              json:"name"`
	MaxMarks   int    `gorm:"not null"                                json:"max_marks"`
	SemesterID string `gorm:"type:uuid;not null;index"                json:"semester_id"`
	BaseModel

	Semester *Semester `gorm:"foreignKey:SemesterID;references:SemesterID" json:"semester,omitempty"`
}

// TableName table name
func (Subject) TableName() string { return "subjects" }

func (s *Subject) BeforeCreate(*gorm.DB) error {
	assignID(&s.SubjectID)
	return nil
}
