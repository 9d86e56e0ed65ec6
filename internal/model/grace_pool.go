package model

import (
	"time"

	"gorm.io/gorm"
)

// GracePool grace_pools table, one row per (student, semester).
// 0 <= UsedGrace <= TotalGrace; UsedGrace never decreases.
type GracePool struct {
	GracePoolID string    `gorm:"type:uuid;primaryKey"                                                json:"grace_pool_id"`
	StudentID   string    `gorm:"type:uuid;not null;uniqueIndex:uq_grace_pools_student_semester,priority:1" json:"student_id"`
	SemesterID  string    `gorm:"type:uuid;not null;uniqueIndex:uq_grace_pools_student_semester,priority:2" json:"semester_id"`
	TotalGrace  int       `gorm:"not null"                                                            json:"total_grace"`
	UsedGrace   int       `gorm:"not null;default:0"                                                  json:"used_grace"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                                  json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                                  json:"updated_at"`
}

// TableName table name
func (GracePool) TableName() string { return "grace_pools" }

func (p *GracePool) BeforeCreate(*gorm.DB) error {
	assignID(&p.GracePoolID)
	return nil
}

// Available is the allowance left to spend.
func (p *GracePool) Available() int { return p.TotalGrace - p.UsedGrace }

// Consistent reports whether the persisted counters satisfy the pool invariant.
func (p *GracePool) Consistent() bool {
	return p.TotalGrace >= 0 && p.UsedGrace >= 0 && p.UsedGrace <= p.TotalGrace
}
